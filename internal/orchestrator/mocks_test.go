package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"relflow/internal/changelog"
	"relflow/internal/config"
	"relflow/internal/host"
	"relflow/internal/metadata"
	"relflow/internal/repo"
)

// MockRepo is an in-memory repo.Gateway that records every call.
type MockRepo struct {
	// Calls records operation names in call order.
	Calls []string
	// Branch is returned by CurrentBranch.
	Branch string
	// StatusLines is returned by Status.
	StatusLines []string
	// Meta is the stored metadata document.
	Meta []byte
	// Writes counts WriteMetadata calls.
	Writes int
	// Commits records commit messages.
	Commits []string
	// CreatedTags records tag names passed to Tag.
	CreatedTags []string
	// Pushes records "remote branch tags=bool" for each push.
	Pushes []string
	// ReleaseTags is returned by Tags.
	ReleaseTags []string
	// History is returned by Log.
	History []changelog.Commit
	// LogRanges records "from..to" for each Log call.
	LogRanges []string
	// FailOn makes the named operation fail.
	FailOn string
}

var _ repo.Gateway = (*MockRepo)(nil)

func newMockRepo(version string) *MockRepo {
	return &MockRepo{
		Branch: "master",
		Meta:   []byte(fmt.Sprintf(`{"name":"widget","version":%q,"private":true}`, version)),
	}
}

func (m *MockRepo) call(op string) error {
	m.Calls = append(m.Calls, op)
	if m.FailOn == op {
		return &repo.OperationError{Op: op, Message: "simulated failure"}
	}
	return nil
}

func (m *MockRepo) CurrentBranch(ctx context.Context) (string, error) {
	return m.Branch + "\n", m.call("current-branch")
}

func (m *MockRepo) Status(ctx context.Context) ([]string, error) {
	return m.StatusLines, m.call("status")
}

func (m *MockRepo) Checkout(ctx context.Context, branch string) error {
	if err := m.call("checkout " + branch); err != nil {
		return err
	}
	m.Branch = branch
	return nil
}

func (m *MockRepo) Pull(ctx context.Context, remote, branch string) error {
	return m.call("pull " + remote + " " + branch)
}

func (m *MockRepo) Merge(ctx context.Context, branch string, opts repo.MergeOptions) error {
	return m.call("merge " + branch + " -X " + opts.Strategy)
}

func (m *MockRepo) Push(ctx context.Context, remote, branch string, opts repo.PushOptions) error {
	if err := m.call("push " + branch); err != nil {
		return err
	}
	m.Pushes = append(m.Pushes, fmt.Sprintf("%s %s tags=%t", remote, branch, opts.Tags))
	return nil
}

func (m *MockRepo) Tag(ctx context.Context, name, message string) error {
	if err := m.call("tag"); err != nil {
		return err
	}
	m.CreatedTags = append(m.CreatedTags, name+": "+message)
	return nil
}

func (m *MockRepo) Commit(ctx context.Context, message string) error {
	if err := m.call("commit"); err != nil {
		return err
	}
	m.Commits = append(m.Commits, message)
	return nil
}

func (m *MockRepo) Tags(ctx context.Context) ([]string, error) {
	return m.ReleaseTags, m.call("tags")
}

func (m *MockRepo) Log(ctx context.Context, from, to string) ([]changelog.Commit, error) {
	m.LogRanges = append(m.LogRanges, from+".."+to)
	return m.History, m.call("log")
}

func (m *MockRepo) RemoteURL(ctx context.Context, remote string) (string, error) {
	return "git@github.com:acme/widget.git", m.call("remote-url")
}

func (m *MockRepo) ReadMetadata(ctx context.Context) (*metadata.Metadata, error) {
	if err := m.call("read-metadata"); err != nil {
		return nil, err
	}
	return metadata.Parse(m.Meta)
}

func (m *MockRepo) WriteMetadata(ctx context.Context, md *metadata.Metadata) error {
	if err := m.call("write-metadata"); err != nil {
		return err
	}
	data, err := md.Encode()
	if err != nil {
		return err
	}
	m.Meta = data
	m.Writes++
	return nil
}

// version parses the stored metadata version.
func (m *MockRepo) version(t *testing.T) string {
	t.Helper()
	md, err := metadata.Parse(m.Meta)
	require.NoError(t, err)
	return md.RawVersion()
}

// MockHost is a host.Gateway with canned responses.
type MockHost struct {
	// Calls records operation names in call order.
	Calls []string
	// Status is returned by CheckServiceStatus.
	Status host.ServiceStatus
	// StatusErr fails CheckServiceStatus.
	StatusErr error
	// Results is returned by PublishRelease.
	Results []host.PublishResult
	// PublishErr fails PublishRelease at the transport level.
	PublishErr error
	// Published records the last publish config.
	Published host.PublishConfig
}

var _ host.Gateway = (*MockHost)(nil)

func (m *MockHost) CheckServiceStatus(ctx context.Context) (host.ServiceStatus, error) {
	m.Calls = append(m.Calls, "check-status")
	return m.Status, m.StatusErr
}

func (m *MockHost) PublishRelease(ctx context.Context, cfg host.PublishConfig) ([]host.PublishResult, error) {
	m.Calls = append(m.Calls, "publish")
	m.Published = cfg
	if m.PublishErr != nil {
		return nil, m.PublishErr
	}
	return m.Results, nil
}

// testConfig returns a valid release config with a token.
func testConfig() config.ReleaseConfig {
	cfg := config.DefaultConfig().Release
	cfg.GitHubToken = "token"
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg config.ReleaseConfig, r repo.Gateway, h host.Gateway, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(cfg, r, h, opts...)
	require.NoError(t, err)
	return o
}
