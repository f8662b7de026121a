package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"relflow/internal/config"
	"relflow/internal/host"
	"relflow/internal/repo"
	"relflow/internal/version"
)

// steps returns every release step in canonical runbook order.
func (o *Orchestrator) steps() []Step {
	c := o.cfg
	return []Step{
		{
			Name:        config.StepCheckHostStatus,
			Description: "abort unless the release host reports status good",
			Action:      o.checkHostStatus,
		},
		{
			Name:        config.StepEnsureClean,
			Description: "abort if the working tree has uncommitted changes",
			Action:      o.ensureClean,
		},
		{
			Name:        config.StepCheckoutDevelop,
			Description: "checkout " + c.DevelopBranch,
			Action:      o.checkout(c.DevelopBranch),
		},
		{
			Name:        config.StepPullDevelop,
			Description: fmt.Sprintf("pull %s %s", c.Remote, c.DevelopBranch),
			Action:      o.pull(c.Remote, c.DevelopBranch),
		},
		{
			Name:        config.StepCheckoutMaster,
			Description: "checkout " + c.MasterBranch,
			Action:      o.checkout(c.MasterBranch),
		},
		{
			Name:        config.StepPullMaster,
			Description: fmt.Sprintf("pull %s %s", c.Remote, c.MasterBranch),
			Action:      o.pull(c.Remote, c.MasterBranch),
		},
		{
			Name:        config.StepMergeDevelop,
			Description: fmt.Sprintf("merge %s preferring %s on conflict", c.DevelopBranch, c.MergeStrategy),
			Action:      o.merge(c.DevelopBranch),
		},
		{
			Name:        config.StepStripPrereleaseVersion,
			Description: "set the metadata version to its base version",
			Action:      o.stripPrereleaseVersion,
		},
		{
			Name:        config.StepCommitReleaseChanges,
			Description: "commit the release version",
			Action:      o.commitChanges("[release]"),
		},
		{
			Name:        config.StepCreateNewTag,
			Description: "tag the release version",
			Action:      o.createNewTag,
		},
		{
			Name:        config.StepPushMaster,
			Description: fmt.Sprintf("push %s %s with tags", c.Remote, c.MasterBranch),
			Action:      o.push(c.MasterBranch, true),
		},
		{
			Name:        config.StepPublishRelease,
			Description: "publish release notes to github",
			Action:      o.publishRelease,
		},
		{
			Name:        config.StepBumpDevelop,
			Description: fmt.Sprintf("bump to the next %s %s version", c.BumpType, c.PrereleaseLabel),
			Action:      o.bumpDevelop,
		},
		{
			Name:        config.StepCommitBumpChanges,
			Description: "commit the development version",
			Action:      o.commitChanges("[bump]"),
		},
		{
			Name:        config.StepPushDevelop,
			Description: fmt.Sprintf("push %s %s", c.Remote, c.DevelopBranch),
			Action:      o.push(c.DevelopBranch, false),
		},
	}
}

func (o *Orchestrator) checkHostStatus(ctx context.Context) error {
	status, err := o.host.CheckServiceStatus(ctx)
	if err != nil {
		return fmt.Errorf("%w: status check failed: %v", ErrHostStatusDegraded, err)
	}
	if !status.IsGood() {
		msg := status.Status
		if status.Description != "" {
			msg += " (" + status.Description + ")"
		}
		return fmt.Errorf("%w: github is down: %s", ErrHostStatusDegraded, msg)
	}
	o.log.Info("github is up and running")
	return nil
}

func (o *Orchestrator) ensureClean(ctx context.Context) error {
	lines, err := o.repo.Status(ctx)
	if err != nil {
		return err
	}

	var dirty DirtyTreeError
	for _, line := range lines {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}
		dirty.Entries = append(dirty.Entries, entry)
		dirty.Paths = append(dirty.Paths, statusPath(entry))
	}
	if len(dirty.Entries) > 0 {
		return &dirty
	}
	return nil
}

// statusPath extracts the path from a trimmed porcelain status entry such as
// "M file.txt", "?? new.txt" or "R old -> new". Paths git quoted because they
// hold spaces or special characters are unquoted.
func statusPath(entry string) string {
	code, path, ok := strings.Cut(entry, " ")
	if !ok || code == "" {
		return entry
	}
	path = strings.TrimSpace(path)

	from := path
	if strings.HasPrefix(path, `"`) {
		if q, err := strconv.QuotedPrefix(path); err == nil {
			from = q
		}
	} else if before, _, renamed := strings.Cut(path, " -> "); renamed {
		from = before
	}
	if to, renamed := strings.CutPrefix(path[len(from):], " -> "); renamed {
		return unquotePath(to)
	}
	return unquotePath(from)
}

// unquotePath decodes a C-quoted status path and returns other paths unchanged.
func unquotePath(p string) string {
	if !strings.HasPrefix(p, `"`) {
		return p
	}
	if s, err := strconv.Unquote(p); err == nil {
		return s
	}
	return p
}

func (o *Orchestrator) checkout(branch string) Action {
	return func(ctx context.Context) error {
		return o.repo.Checkout(ctx, branch)
	}
}

func (o *Orchestrator) pull(remote, branch string) Action {
	return func(ctx context.Context) error {
		return o.repo.Pull(ctx, remote, branch)
	}
}

func (o *Orchestrator) merge(branch string) Action {
	return func(ctx context.Context) error {
		return o.repo.Merge(ctx, branch, repo.MergeOptions{Strategy: o.cfg.MergeStrategy})
	}
}

func (o *Orchestrator) push(branch string, tags bool) Action {
	return func(ctx context.Context) error {
		return o.repo.Push(ctx, o.cfg.Remote, branch, repo.PushOptions{Tags: tags})
	}
}

func (o *Orchestrator) stripPrereleaseVersion(ctx context.Context) error {
	branch, err := o.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	branch = strings.TrimSpace(branch)
	o.log.Debug("current branch", zap.String("branch", branch))
	if branch != o.cfg.MasterBranch {
		return &WrongBranchError{Want: o.cfg.MasterBranch, Got: branch}
	}

	m, err := o.repo.ReadMetadata(ctx)
	if err != nil {
		return err
	}
	v, err := m.Version()
	if err != nil {
		return fmt.Errorf("cannot read project version: %w", err)
	}

	stripped := version.Base(v)
	o.log.Info("strip version", zap.Stringer("from", v), zap.Stringer("to", stripped))
	m.SetVersion(stripped)
	return o.repo.WriteMetadata(ctx, m)
}

func (o *Orchestrator) commitChanges(prefix string) Action {
	return func(ctx context.Context) error {
		v, err := o.currentVersion(ctx)
		if err != nil {
			return err
		}
		return o.repo.Commit(ctx, fmt.Sprintf("%s set version number to %s", prefix, v))
	}
}

func (o *Orchestrator) createNewTag(ctx context.Context) error {
	v, err := o.currentVersion(ctx)
	if err != nil {
		return err
	}
	return o.repo.Tag(ctx, tagName(v), fmt.Sprintf("Created Tag for version: %s", v))
}

func tagName(v version.Version) string {
	return "v" + v.String()
}

func (o *Orchestrator) publishRelease(ctx context.Context) error {
	if o.cfg.GitHubToken == "" {
		return ErrMissingCredential
	}

	drafts, err := o.releaseDrafts(ctx)
	if err != nil {
		return err
	}

	results, err := o.host.PublishRelease(ctx, host.PublishConfig{
		Token:  o.cfg.GitHubToken,
		Drafts: drafts,
	})
	if err != nil {
		if errors.Is(err, host.ErrRepositoryUnknown) || errors.Is(err, host.ErrMissingToken) {
			return fmt.Errorf("cannot publish release: %w", err)
		}
		return &PublishTransportError{Err: err}
	}

	for _, r := range results {
		if r.Rejected() {
			for _, reason := range r.Reasons {
				o.log.Error("release rejected", zap.String("tag", r.Tag), zap.String("reason", reason.Message))
			}
			continue
		}
		o.log.Info("release published", zap.String("tag", r.Tag), zap.String("url", r.URL))
	}

	if rejected := newRejectedError(results); rejected != nil {
		return rejected
	}
	return nil
}

// releaseDrafts builds one draft per newest tag, up to ReleaseCount, each
// with notes for the commits since the tag before it.
func (o *Orchestrator) releaseDrafts(ctx context.Context) ([]host.ReleaseDraft, error) {
	tags, err := o.repo.Tags(ctx)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrNoReleaseTags
	}

	var drafts []host.ReleaseDraft
	for i := 0; i < o.cfg.ReleaseCount && i < len(tags); i++ {
		tag := tags[i]
		var prev string
		if i+1 < len(tags) {
			prev = tags[i+1]
		}

		commits, err := o.repo.Log(ctx, prev, tag)
		if err != nil {
			return nil, err
		}

		v, err := version.Parse(tag)
		if err != nil {
			return nil, err
		}
		body, err := o.notes.Render(v.String(), o.now(), commits)
		if err != nil {
			return nil, err
		}

		drafts = append(drafts, host.ReleaseDraft{
			Tag:        tag,
			Name:       tag,
			Body:       body,
			Prerelease: v.IsPrerelease(),
		})
	}
	return drafts, nil
}

func (o *Orchestrator) bumpDevelop(ctx context.Context) error {
	m, err := o.repo.ReadMetadata(ctx)
	if err != nil {
		return err
	}
	v, err := m.Version()
	if err != nil {
		return fmt.Errorf("cannot read project version: %w", err)
	}

	next, err := version.NextPrerelease(v, o.cfg.BumpType, o.cfg.PrereleaseLabel)
	if err != nil {
		return err
	}
	o.log.Info("new develop version", zap.Stringer("from", v), zap.Stringer("to", next), zap.Stringer("bump", o.cfg.BumpType))
	m.SetVersion(next)
	return o.repo.WriteMetadata(ctx, m)
}
