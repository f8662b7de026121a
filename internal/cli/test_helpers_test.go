package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"relflow/internal/changelog"
	"relflow/internal/config"
	"relflow/internal/host"
	"relflow/internal/metadata"
	"relflow/internal/output"
	"relflow/internal/repo"
)

// MockRepo is an in-memory repo.Gateway for command tests.
type MockRepo struct {
	// Calls records every operation in call order.
	Calls []string
	// Branch is the current branch.
	Branch string
	// Meta is the metadata document.
	Meta []byte
	// FailOn makes the named operation fail.
	FailOn string
}

var _ repo.Gateway = (*MockRepo)(nil)

func newMockRepo(version string) *MockRepo {
	return &MockRepo{
		Branch: "develop",
		Meta:   []byte(fmt.Sprintf("{\n  \"name\": \"widget\",\n  \"version\": %q\n}\n", version)),
	}
}

func (m *MockRepo) record(op string) error {
	m.Calls = append(m.Calls, op)
	if m.FailOn == op {
		return &repo.OperationError{Op: op, Message: "simulated failure"}
	}
	return nil
}

func (m *MockRepo) CurrentBranch(ctx context.Context) (string, error) {
	return m.Branch, m.record("current-branch")
}

func (m *MockRepo) Status(ctx context.Context) ([]string, error) {
	return nil, m.record("status")
}

func (m *MockRepo) Checkout(ctx context.Context, branch string) error {
	if err := m.record("checkout " + branch); err != nil {
		return err
	}
	m.Branch = branch
	return nil
}

func (m *MockRepo) Pull(ctx context.Context, remote, branch string) error {
	return m.record("pull " + branch)
}

func (m *MockRepo) Merge(ctx context.Context, branch string, opts repo.MergeOptions) error {
	return m.record("merge " + branch)
}

func (m *MockRepo) Push(ctx context.Context, remote, branch string, opts repo.PushOptions) error {
	return m.record("push " + branch)
}

func (m *MockRepo) Tag(ctx context.Context, name, message string) error {
	return m.record("tag " + name)
}

func (m *MockRepo) Commit(ctx context.Context, message string) error {
	return m.record("commit")
}

func (m *MockRepo) Tags(ctx context.Context) ([]string, error) {
	return nil, m.record("tags")
}

func (m *MockRepo) Log(ctx context.Context, from, to string) ([]changelog.Commit, error) {
	return nil, m.record("log")
}

func (m *MockRepo) RemoteURL(ctx context.Context, remote string) (string, error) {
	return "https://github.com/acme/widget.git", m.record("remote-url")
}

func (m *MockRepo) ReadMetadata(ctx context.Context) (*metadata.Metadata, error) {
	if err := m.record("read-metadata"); err != nil {
		return nil, err
	}
	return metadata.Parse(m.Meta)
}

func (m *MockRepo) WriteMetadata(ctx context.Context, md *metadata.Metadata) error {
	if err := m.record("write-metadata"); err != nil {
		return err
	}
	data, err := md.Encode()
	if err != nil {
		return err
	}
	m.Meta = data
	return nil
}

func (m *MockRepo) version(t *testing.T) string {
	t.Helper()
	md, err := metadata.Parse(m.Meta)
	require.NoError(t, err)
	return md.RawVersion()
}

// MockHost is a host.Gateway that reports status good and publishes everything.
type MockHost struct {
	Calls  []string
	Status string
}

var _ host.Gateway = (*MockHost)(nil)

func (m *MockHost) CheckServiceStatus(ctx context.Context) (host.ServiceStatus, error) {
	m.Calls = append(m.Calls, "check-status")
	status := m.Status
	if status == "" {
		status = host.StatusGood
	}
	return host.ServiceStatus{Status: status}, nil
}

func (m *MockHost) PublishRelease(ctx context.Context, cfg host.PublishConfig) ([]host.PublishResult, error) {
	m.Calls = append(m.Calls, "publish")
	results := make([]host.PublishResult, len(cfg.Drafts))
	for i, d := range cfg.Drafts {
		results[i] = host.PublishResult{Tag: d.Tag, State: host.StateFulfilled}
	}
	return results, nil
}

// testEnv bundles an App wired to fakes with its captured output.
type testEnv struct {
	app  *App
	repo *MockRepo
	host *MockHost
	out  *bytes.Buffer
}

func newTestEnv(version string) *testEnv {
	out := &bytes.Buffer{}
	r := newMockRepo(version)
	h := &MockHost{}
	return &testEnv{
		app: &App{
			Config:  config.DefaultConfig(),
			Repo:    r,
			Host:    h,
			Printer: output.NewPrinterWithWriter(out),
		},
		repo: r,
		host: h,
		out:  out,
	}
}

// run executes the command line with args against the env.
func (e *testEnv) run(args ...string) error {
	rootCmd := NewRootCommand(e.app)
	rootCmd.SetOut(e.out)
	rootCmd.SetErr(e.out)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
