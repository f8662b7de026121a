package repo

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"

	"relflow/internal/changelog"
	"relflow/internal/version"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Git runs version control operations with the git binary against one working tree.
type Git struct {
	dir    string
	binary string
	log    *zap.Logger
}

// NewGit creates a [Git] for the working tree at dir. An empty binary means "git".
func NewGit(dir, binary string, log *zap.Logger) *Git {
	if binary == "" {
		binary = "git"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Git{dir: dir, binary: binary, log: log}
}

// Dir returns the working tree directory.
func (g *Git) Dir() string {
	return g.dir
}

// run executes git with args and returns trimmed-right stdout.
// A non-zero exit becomes an [*OperationError] for op.
func (g *Git) run(ctx context.Context, op string, args ...string) (string, error) {
	full := append([]string{"-C", g.dir}, args...)
	cmd := exec.CommandContext(ctx, g.binary, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.log.Debug("git", zap.String("op", op), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", &OperationError{Op: op, Message: msg, Err: err}
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// CurrentBranch returns the abbreviated name of HEAD.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status returns the porcelain status lines, unfiltered.
func (g *Git) Status(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Checkout switches to branch.
func (g *Git) Checkout(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", "checkout", branch)
	return err
}

// Pull pulls branch from remote into the current branch.
func (g *Git) Pull(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "pull", "pull", remote, branch)
	return err
}

// Merge merges branch into the current branch.
func (g *Git) Merge(ctx context.Context, branch string, opts MergeOptions) error {
	args := []string{"merge", "--no-edit"}
	if opts.Strategy != "" {
		args = append(args, "-X", opts.Strategy)
	}
	args = append(args, branch)
	_, err := g.run(ctx, "merge", args...)
	return err
}

// Push pushes branch to remote.
func (g *Git) Push(ctx context.Context, remote, branch string, opts PushOptions) error {
	args := []string{"push", remote, branch}
	if opts.Tags {
		args = append(args, "--tags")
	}
	_, err := g.run(ctx, "push", args...)
	return err
}

// Tag creates an annotated tag at HEAD.
func (g *Git) Tag(ctx context.Context, name, message string) error {
	_, err := g.run(ctx, "tag", "tag", "-a", name, "-m", message)
	return err
}

// Commit stages every change in the working tree and commits it.
func (g *Git) Commit(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "add", "-A"); err != nil {
		return err
	}
	_, err := g.run(ctx, "commit", "commit", "-m", message)
	return err
}

// Tags returns the tags that parse as semantic versions, highest first.
func (g *Git) Tags(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "tag", "tag", "--list")
	if err != nil {
		return nil, err
	}

	type tagVersion struct {
		name string
		v    version.Version
	}
	var tags []tagVersion
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		v, err := version.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, tagVersion{name: name, v: v})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return version.Less(tags[j].v, tags[i].v)
	})

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.name
	}
	return names, nil
}

// Log returns commits in from..to, newest first.
func (g *Git) Log(ctx context.Context, from, to string) ([]changelog.Commit, error) {
	rev := to
	if from != "" {
		rev = from + ".." + to
	}
	out, err := g.run(ctx, "log", "log", "--format=%H"+fieldSep+"%B"+recordSep, rev)
	if err != nil {
		return nil, err
	}

	var commits []changelog.Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		hash, message, _ := strings.Cut(record, fieldSep)
		commits = append(commits, changelog.Commit{
			Hash:    strings.TrimSpace(hash),
			Message: strings.TrimSpace(message),
		})
	}
	return commits, nil
}

// RemoteURL returns the fetch URL of remote.
func (g *Git) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := g.run(ctx, "remote", "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
