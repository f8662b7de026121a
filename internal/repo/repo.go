// Package repo is the repository gateway: version control operations plus the
// package metadata file.
//
// [Gateway] is the capability interface the release orchestrator consumes.
// [Local] implements it on top of the git command line and a [metadata.Store]
// rooted at the same project directory.
package repo

import (
	"context"
	"errors"
	"fmt"

	"relflow/internal/changelog"
	"relflow/internal/metadata"
)

// ErrOperationFailed is matched by every [*OperationError].
var ErrOperationFailed = errors.New("repository operation failed")

// OperationError reports a version control command that exited non-zero.
type OperationError struct {
	// Op is the operation name, e.g. "checkout" or "push".
	Op string

	// Message is the backend's error output.
	Message string

	// Err is the underlying process error, if any.
	Err error
}

// Error reports the failed operation and its message.
func (e *OperationError) Error() string {
	return fmt.Sprintf("git %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is makes every OperationError match [ErrOperationFailed].
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// MergeOptions controls how a branch is merged.
type MergeOptions struct {
	// Strategy is passed as a recursive/ort strategy option ("-X theirs").
	// Empty means the backend default.
	Strategy string
}

// PushOptions controls a push.
type PushOptions struct {
	// Tags also pushes tags.
	Tags bool
}

// Gateway is the repository capability the orchestrator runs against.
//
// Every version control method returns an error matching [ErrOperationFailed]
// when the backend fails. Metadata methods return errors matching
// [metadata.ErrMetadataIO].
type Gateway interface {
	CurrentBranch(ctx context.Context) (string, error)
	Status(ctx context.Context) ([]string, error)
	Checkout(ctx context.Context, branch string) error
	Pull(ctx context.Context, remote, branch string) error
	Merge(ctx context.Context, branch string, opts MergeOptions) error
	Push(ctx context.Context, remote, branch string, opts PushOptions) error
	Tag(ctx context.Context, name, message string) error
	Commit(ctx context.Context, message string) error

	// Tags returns release tags, highest version first.
	Tags(ctx context.Context) ([]string, error)

	// Log returns the commits reachable from to but not from from.
	// An empty from lists the full history of to.
	Log(ctx context.Context, from, to string) ([]changelog.Commit, error)

	RemoteURL(ctx context.Context, remote string) (string, error)

	ReadMetadata(ctx context.Context) (*metadata.Metadata, error)
	WriteMetadata(ctx context.Context, m *metadata.Metadata) error
}

// Local is a [Gateway] over a git working tree and its metadata file.
type Local struct {
	*Git
	store *metadata.Store
}

var _ Gateway = (*Local)(nil)

// NewLocal combines a git backend with a metadata store.
func NewLocal(git *Git, store *metadata.Store) *Local {
	return &Local{Git: git, store: store}
}

// ReadMetadata loads the metadata file.
func (l *Local) ReadMetadata(ctx context.Context) (*metadata.Metadata, error) {
	return l.store.Read()
}

// WriteMetadata rewrites the metadata file.
func (l *Local) WriteMetadata(ctx context.Context, m *metadata.Metadata) error {
	return l.store.Write(m)
}

// MetadataPath returns the resolved metadata file path.
func (l *Local) MetadataPath() string {
	return l.store.Path()
}
