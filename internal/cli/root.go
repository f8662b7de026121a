// Package cli implements the relflow command line.
//
// Commands are built with Cobra around an [App], which carries the loaded
// configuration and the gateways the release steps run against. Tests inject
// fake gateways into App; [Execute] builds the real ones from configuration.
//
// Commands:
//   - release: run the configured release runbook
//   - bump: move the metadata version to the next prerelease version
//   - step <name>: run a single registered step
//   - steps: list the registered steps and whether they are enabled
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"relflow/internal/config"
	"relflow/internal/host"
	"relflow/internal/logging"
	"relflow/internal/metadata"
	"relflow/internal/orchestrator"
	"relflow/internal/output"
	"relflow/internal/repo"
	"relflow/internal/runbook"
	"relflow/internal/version"
)

// App holds the dependencies shared by every command.
//
// Nil fields are built from Config when a command starts.
type App struct {
	Config  *config.Config
	Repo    repo.Gateway
	Host    host.Gateway
	Printer *output.Printer
	Logger  *zap.Logger

	// Fs is used to read runbook and metadata files. Defaults to the OS filesystem.
	Fs afero.Fs

	// Clock dates release notes. Defaults to time.Now.
	Clock func() time.Time
}

// ExecuteResult is the outcome of a command line invocation.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

type rootFlags struct {
	configPath  string
	bumpType    string
	githubToken string
	projectRoot string
	logLevel    string
	runbook     string
}

// NewRootCommand creates the relflow command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "relflow",
		Short: "Release automation for develop/master git workflows",
		Long: `relflow releases a project kept on two long-lived branches.

It checks that GitHub is up and the working tree is clean, merges develop
into master, strips the prerelease label from the version in package.json,
commits, tags, pushes and publishes a GitHub release, then moves develop to
the next prerelease version. Steps run strictly in order and the first
failure stops the run.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.configure(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ./relflow.yaml)")
	pf.StringVar(&flags.bumpType, "bump-type", "", "component bumped on develop: major, minor or patch (default minor)")
	pf.StringVar(&flags.githubToken, "github-token", "", "GitHub token used to publish releases (default $GITHUB_TOKEN)")
	pf.StringVar(&flags.projectRoot, "project-root", "", "directory holding the working tree and package.json")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error or none")
	pf.StringVar(&flags.runbook, "runbook", "", "CSV runbook selecting the enabled steps")
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	rootCmd.AddCommand(
		newReleaseCommand(app),
		newBumpCommand(app),
		newStepCommand(app),
		newStepsCommand(app),
	)

	return rootCmd
}

// normalizeFlagName accepts the camelCase spellings of the long flags.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "bumpType":
		name = "bump-type"
	case "githubToken":
		name = "github-token"
	case "projectRoot":
		name = "project-root"
	case "logLevel":
		name = "log-level"
	}
	return pflag.NormalizedName(name)
}

// configure applies flag overrides and builds the missing dependencies.
func (a *App) configure(cmd *cobra.Command, flags *rootFlags) error {
	if flags.configPath != "" {
		cfg, err := config.NewLoader().LoadFromFile(flags.configPath)
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if a.Config == nil {
		a.Config = config.DefaultConfig()
	}
	cfg := a.Config

	pf := cmd.Flags()
	if pf.Changed("bump-type") {
		t, err := version.ParseBumpType(flags.bumpType)
		if err != nil {
			return err
		}
		cfg.Release.BumpType = t
	}
	if pf.Changed("github-token") {
		cfg.Release.GitHubToken = flags.githubToken
	}
	if pf.Changed("project-root") {
		cfg.Project.Root = flags.projectRoot
	}
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if pf.Changed("runbook") {
		cfg.Release.Runbook = flags.runbook
	}

	if a.Printer == nil {
		a.Printer = output.NewPrinterWithWriter(cmd.OutOrStdout())
	}
	if a.Logger == nil {
		l, err := a.newLogger(cmd)
		if err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
		a.Logger = l
	}
	if a.Fs == nil {
		a.Fs = afero.NewOsFs()
	}

	if cfg.Release.Runbook != "" {
		if err := a.applyRunbook(); err != nil {
			return err
		}
	}

	if a.Repo == nil {
		git := repo.NewGit(cfg.Project.Root, cfg.Git.BinaryPath, a.Logger)
		store := metadata.NewStore(a.Fs, cfg.Project.Root, cfg.Project.MetadataFile)
		a.Repo = repo.NewLocal(git, store)
	}
	if a.Host == nil {
		a.Host = &remoteHost{app: a}
	}
	return nil
}

// newLogger builds the logger selected by the log format. JSON logs go to the
// process stderr through zap's production config.
func (a *App) newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	switch a.Config.Log.Format {
	case logging.FormatJSON:
		return logging.New(a.Config.Log.Level)
	case "", logging.FormatConsole:
		return logging.NewWithWriter(a.Config.Log.Level, cmd.ErrOrStderr())
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", a.Config.Log.Format)
	}
}

// applyRunbook replaces the configured steps with the runbook's enabled steps.
// A relative runbook path is resolved against the project root.
func (a *App) applyRunbook() error {
	path := a.Config.Release.Runbook
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.Config.Project.Root, path)
	}
	rb, err := runbook.ReadFromFile(a.Fs, path)
	if err != nil {
		return err
	}
	if err := rb.Validate(config.IsStep); err != nil {
		return err
	}
	a.Config.Release.Steps = rb.Enabled()
	a.Logger.Debug("runbook loaded",
		zap.String("path", path),
		zap.Strings("enabled", rb.Enabled()),
		zap.Strings("disabled", rb.Disabled()))
	return nil
}

// newOrchestrator builds an orchestrator whose progress goes to the printer.
// Executed steps are appended to results when it is non-nil.
func (a *App) newOrchestrator(results *[]output.StepResult) (*orchestrator.Orchestrator, error) {
	opts := []orchestrator.Option{
		orchestrator.WithLogger(a.Logger),
		orchestrator.WithHooks(orchestrator.Hooks{
			OnStepStart: a.Printer.StepStart,
			OnStepDone: func(index int, step string, err error) {
				r := a.Printer.StepDone(index, step, err)
				if results != nil {
					*results = append(*results, r)
				}
			},
		}),
	}
	if a.Clock != nil {
		opts = append(opts, orchestrator.WithClock(a.Clock))
	}
	return orchestrator.New(a.Config.Release, a.Repo, a.Host, opts...)
}

// fail reports err and converts it to an exit code 1.
func (a *App) fail(cmd *cobra.Command, err error) error {
	cmd.SilenceUsage = true
	a.Printer.Error(err)
	return NewExitError(1)
}

// remoteHost builds the GitHub gateway on first use, so commands that never
// reach the host never resolve the repository from the remote URL.
type remoteHost struct {
	app *App
	gw  host.Gateway
}

// get returns the GitHub gateway, building it on the first call.
func (r *remoteHost) get(ctx context.Context) (host.Gateway, error) {
	if r.gw != nil {
		return r.gw, nil
	}
	cfg := r.app.Config

	repository := cfg.Host.Repository
	if repository == "" {
		url, err := r.app.Repo.RemoteURL(ctx, cfg.Release.Remote)
		if err != nil {
			r.app.Logger.Warn("cannot read remote url", zap.String("remote", cfg.Release.Remote), zap.Error(err))
		}
		repository = url
	}
	owner, name, err := host.ParseRepository(repository)
	if err != nil {
		r.app.Logger.Warn("repository unknown, publishing will fail", zap.Error(err))
	}

	timeout := time.Duration(cfg.Host.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = host.DefaultStatusTimeout
	}
	gw, err := host.NewGitHub(host.GitHubOptions{
		Owner:      owner,
		Repo:       name,
		StatusURL:  cfg.Host.StatusURL,
		APIURL:     cfg.Host.APIURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     r.app.Logger,
	})
	if err != nil {
		return nil, err
	}
	r.gw = gw
	return gw, nil
}

// CheckServiceStatus implements [host.Gateway].
func (r *remoteHost) CheckServiceStatus(ctx context.Context) (host.ServiceStatus, error) {
	gw, err := r.get(ctx)
	if err != nil {
		return host.ServiceStatus{}, err
	}
	return gw.CheckServiceStatus(ctx)
}

// PublishRelease implements [host.Gateway].
func (r *remoteHost) PublishRelease(ctx context.Context, cfg host.PublishConfig) ([]host.PublishResult, error) {
	gw, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	return gw.PublishRelease(ctx, cfg)
}

// RunWithConfig runs the command line with cfg and returns the exit code
// instead of exiting.
func RunWithConfig(cfg *config.Config) ExecuteResult {
	return runApp(&App{Config: cfg}, os.Args[1:])
}

func runApp(app *App, args []string) ExecuteResult {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
	return ExecuteResult{ExitCode: 0}
}

// Execute loads configuration, runs the command line and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg)
	os.Exit(result.ExitCode)
}
