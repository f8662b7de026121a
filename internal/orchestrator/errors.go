package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"relflow/internal/host"
)

// Sentinel errors for release orchestration.
var (
	// ErrMissingCredential is returned before any step runs when no release
	// token is configured.
	ErrMissingCredential = errors.New("no github token defined")

	// ErrWrongBranch is matched by [*WrongBranchError].
	ErrWrongBranch = errors.New("not on release branch")

	// ErrDirtyWorkingTree is matched by [*DirtyTreeError].
	ErrDirtyWorkingTree = errors.New("working tree not clean")

	// ErrHostStatusDegraded indicates the hosting provider is not fully operational.
	ErrHostStatusDegraded = errors.New("release host is not operational")

	// ErrReleaseRejected is matched by [*RejectedError].
	ErrReleaseRejected = errors.New("release rejected")

	// ErrPublishTransport is matched by [*PublishTransportError].
	ErrPublishTransport = errors.New("release publish transport error")

	// ErrNoReleaseTags indicates publish-release found no version tags.
	ErrNoReleaseTags = errors.New("no release tags found")

	// ErrUnknownStep indicates a step name that was never registered.
	ErrUnknownStep = errors.New("unknown step")

	// ErrDuplicateStep indicates a second registration of the same step name.
	ErrDuplicateStep = errors.New("step already registered")

	// ErrEmptySequence indicates a sequence with no steps.
	ErrEmptySequence = errors.New("sequence has no steps")

	// ErrSequenceConsumed is returned when a sequence is run a second time.
	ErrSequenceConsumed = errors.New("sequence already executed")
)

// StepError wraps the failure of one step with its name and position.
type StepError struct {
	Step  string
	Index int
	Err   error
}

// Error names the failed step and its cause.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the step's underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// WrongBranchError reports a step run on a branch other than the one it requires.
type WrongBranchError struct {
	Want string
	Got  string
}

// Error reports the required and the current branch.
func (e *WrongBranchError) Error() string {
	return fmt.Sprintf("not on %s (current branch: %s)", e.Want, e.Got)
}

// Is matches [ErrWrongBranch].
func (e *WrongBranchError) Is(target error) bool {
	return target == ErrWrongBranch
}

// DirtyTreeError lists the uncommitted changes found by ensure-clean.
type DirtyTreeError struct {
	// Entries are the trimmed status lines, e.g. "M file.txt".
	Entries []string

	// Paths are the paths named by Entries.
	Paths []string
}

// Error lists the uncommitted entries.
func (e *DirtyTreeError) Error() string {
	return fmt.Sprintf("working tree not clean: %s", strings.Join(e.Entries, ", "))
}

// Is matches [ErrDirtyWorkingTree].
func (e *DirtyTreeError) Is(target error) bool {
	return target == ErrDirtyWorkingTree
}

// RejectedError reports every reason the release host gave for refusing releases.
type RejectedError struct {
	Results []host.PublishResult
	err     error
}

func newRejectedError(results []host.PublishResult) *RejectedError {
	e := &RejectedError{}
	for _, r := range results {
		if !r.Rejected() {
			continue
		}
		e.Results = append(e.Results, r)
		if len(r.Reasons) == 0 {
			e.err = multierr.Append(e.err, fmt.Errorf("%s: rejected", r.Tag))
		}
		for _, reason := range r.Reasons {
			e.err = multierr.Append(e.err, fmt.Errorf("%s: %s", r.Tag, reason.Message))
		}
	}
	if len(e.Results) == 0 {
		return nil
	}
	return e
}

// Error joins every rejection reason.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("github release rejected: %v", e.err)
}

// Reasons returns one error per rejection reason, across every rejected release.
func (e *RejectedError) Reasons() []error {
	return multierr.Errors(e.err)
}

// Is matches [ErrReleaseRejected].
func (e *RejectedError) Is(target error) bool {
	return target == ErrReleaseRejected
}

// PublishTransportError reports a publish call that failed before the host
// could accept or reject anything.
type PublishTransportError struct {
	Err error
}

// Error reports the failed publish call.
func (e *PublishTransportError) Error() string {
	return fmt.Sprintf("github release transport error: %v", e.Err)
}

// Unwrap returns the error from the host gateway.
func (e *PublishTransportError) Unwrap() error {
	return e.Err
}

// Is matches [ErrPublishTransport].
func (e *PublishTransportError) Is(target error) bool {
	return target == ErrPublishTransport
}
