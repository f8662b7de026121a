// Package orchestrator runs the release runbook.
//
// The orchestrator registers every named release step in a [Registry] and
// executes the configured subset as a [Sequence]: strictly in order, stopping
// at the first failing step, never retrying and never rolling back.
//
// Key types:
//   - [Orchestrator] wires the steps to a [repo.Gateway] and a [host.Gateway]
//   - [Sequence] is one run: Idle -> Running -> Succeeded | Failed
//   - [Registry] maps step names to steps
//
// Use [New] to create an instance and [Orchestrator.Release] to run the
// release, [Orchestrator.Bump] to move develop to the next prerelease version,
// or [Orchestrator.RunStep] for any single step.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relflow/internal/changelog"
	"relflow/internal/config"
	"relflow/internal/host"
	"relflow/internal/repo"
	"relflow/internal/version"
)

// Orchestrator executes release steps against the repository and release host.
type Orchestrator struct {
	cfg      config.ReleaseConfig
	repo     repo.Gateway
	host     host.Gateway
	notes    *changelog.Generator
	registry *Registry
	hooks    Hooks
	log      *zap.Logger
	now      func() time.Time
}

// Option customizes an [Orchestrator].
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithHooks instruments every sequence the orchestrator runs.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = h
	}
}

// WithClock overrides the time source used to date release notes.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator and registers the release steps.
//
// cfg is copied; later changes to the caller's value do not affect the
// orchestrator. Returns an error if cfg is invalid.
func New(cfg config.ReleaseConfig, r repo.Gateway, h host.Gateway, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	notes, err := changelog.NewGenerator(cfg.Preset, cfg.IncludeMerges)
	if err != nil {
		return nil, err
	}

	cfg.Steps = append([]string(nil), cfg.Steps...)
	o := &Orchestrator{
		cfg:      cfg,
		repo:     r,
		host:     h,
		notes:    notes,
		registry: NewRegistry(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	for _, s := range o.steps() {
		if err := o.registry.Register(s); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Config returns the release configuration the orchestrator was built with.
func (o *Orchestrator) Config() config.ReleaseConfig {
	return o.cfg
}

// Registry returns the step registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Plan returns the steps a release would run, without running them.
func (o *Orchestrator) Plan() ([]Step, error) {
	return o.registry.Resolve(o.cfg.Steps)
}

// Release runs the configured release sequence.
//
// The credential check happens before anything else: without a token the
// release fails with [ErrMissingCredential] and no gateway is touched. done
// (if non-nil) receives the final outcome, which is also returned.
func (o *Orchestrator) Release(ctx context.Context, done func(error)) error {
	finish := func(err error) error {
		if done != nil {
			done(err)
		}
		return err
	}

	if o.cfg.GitHubToken == "" {
		return finish(ErrMissingCredential)
	}

	seq, err := o.registry.Sequence(o.cfg.Steps, o.hooks)
	if err != nil {
		return finish(err)
	}

	o.log.Info("release started", zap.Strings("steps", seq.Names()))
	err = seq.Run(ctx, nil)
	if err != nil {
		o.log.Error("release failed", zap.Error(err))
	} else {
		o.log.Info("release finished")
	}
	return finish(err)
}

// RunStep runs a single registered step as a one-step sequence.
func (o *Orchestrator) RunStep(ctx context.Context, name string) error {
	seq, err := o.registry.Sequence([]string{name}, o.hooks)
	if err != nil {
		return err
	}
	return seq.Run(ctx, nil)
}

// Bump moves the metadata version to the next prerelease version and returns it.
//
// Bump is independent of the release sequence and may run at any time.
func (o *Orchestrator) Bump(ctx context.Context) (version.Version, error) {
	if err := o.RunStep(ctx, config.StepBumpDevelop); err != nil {
		return version.Version{}, err
	}
	m, err := o.repo.ReadMetadata(ctx)
	if err != nil {
		return version.Version{}, err
	}
	return m.Version()
}

// currentVersion reads and parses the metadata version.
func (o *Orchestrator) currentVersion(ctx context.Context) (version.Version, error) {
	m, err := o.repo.ReadMetadata(ctx)
	if err != nil {
		return version.Version{}, err
	}
	v, err := m.Version()
	if err != nil {
		return version.Version{}, fmt.Errorf("cannot read project version: %w", err)
	}
	return v, nil
}
