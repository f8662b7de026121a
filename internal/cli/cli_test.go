package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"relflow/internal/config"
	"relflow/internal/output"
	"relflow/internal/version"
)

func TestReleaseCommand(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		token         string
		hostStatus    string
		failOn        string
		expectError   bool
		expectOutput  []string
		expectVersion string
		expectCalls   []string
	}{
		{
			name:          "default sequence strips the prerelease label",
			args:          []string{"release", "--github-token", "secret"},
			expectOutput:  []string{output.SuccessBanner, "[8/8] strip-prerelease-version"},
			expectVersion: "1.4.0",
		},
		{
			name:          "camelCase token flag",
			args:          []string{"release", "--githubToken", "secret"},
			expectOutput:  []string{output.SuccessBanner},
			expectVersion: "1.4.0",
		},
		{
			name:          "token from config",
			args:          []string{"release"},
			token:         "from-config",
			expectOutput:  []string{output.SuccessBanner},
			expectVersion: "1.4.0",
		},
		{
			name:          "missing token fails before any step",
			args:          []string{"release"},
			expectError:   true,
			expectOutput:  []string{"no github token defined"},
			expectVersion: "1.4.0-prerelease",
			expectCalls:   []string{},
		},
		{
			name:          "degraded host stops the release",
			args:          []string{"release", "--github-token", "secret"},
			hostStatus:    "major",
			expectError:   true,
			expectOutput:  []string{"check-host-status failed", "github is down"},
			expectVersion: "1.4.0-prerelease",
			expectCalls:   []string{},
		},
		{
			name:          "failing git operation names the step",
			args:          []string{"release", "--github-token", "secret"},
			failOn:        "merge develop",
			expectError:   true,
			expectOutput:  []string{"step merge-develop failed"},
			expectVersion: "1.4.0-prerelease",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv("1.4.0-prerelease")
			env.app.Config.Release.GitHubToken = tt.token
			env.host.Status = tt.hostStatus
			env.repo.FailOn = tt.failOn

			err := env.run(tt.args...)

			if tt.expectError {
				require.Error(t, err)
				code, ok := IsExitError(err)
				assert.True(t, ok, "error should be an ExitError")
				assert.Equal(t, 1, code)
				assert.NotContains(t, env.out.String(), output.SuccessBanner)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tt.expectOutput {
				assert.Contains(t, env.out.String(), want)
			}
			assert.Equal(t, tt.expectVersion, env.repo.version(t))
			if tt.expectCalls != nil {
				assert.Equal(t, tt.expectCalls, append([]string{}, env.repo.Calls...))
			}
		})
	}
}

func TestReleaseCommand_MissingTokenTouchesNothing(t *testing.T) {
	env := newTestEnv("1.4.0-prerelease")

	err := env.run("release")

	require.Error(t, err)
	assert.Empty(t, env.repo.Calls)
	assert.Empty(t, env.host.Calls)
}

func TestReleaseCommand_DryRun(t *testing.T) {
	env := newTestEnv("1.4.0-prerelease")

	err := env.run("release", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "Dry run: 8 steps would run")
	assert.Contains(t, env.out.String(), "merge-develop")
	assert.Empty(t, env.repo.Calls)
	assert.Empty(t, env.host.Calls)
}

func TestBumpCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "default minor", args: []string{"bump"}, want: "1.5.0-prerelease"},
		{name: "major", args: []string{"bump", "--bump-type", "major"}, want: "2.0.0-prerelease"},
		{name: "camelCase flag", args: []string{"bump", "--bumpType", "patch"}, want: "1.4.1-prerelease"},
		{name: "case insensitive", args: []string{"bump", "--bump-type", "PATCH"}, want: "1.4.1-prerelease"},
		{name: "invalid bump type", args: []string{"bump", "--bump-type", "huge"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv("1.4.0")

			err := env.run(tt.args...)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, version.ErrInvalidBumpType))
				assert.Equal(t, "1.4.0", env.repo.version(t))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.repo.version(t))
			assert.Contains(t, env.out.String(), "version bumped to "+tt.want)
			assert.NotContains(t, env.repo.Calls, "current-branch", "bump is not branch gated")
		})
	}
}

func TestStepCommand(t *testing.T) {
	t.Run("strip on master", func(t *testing.T) {
		env := newTestEnv("3.0.0-rc.2")
		env.repo.Branch = "master"

		require.NoError(t, env.run("step", config.StepStripPrereleaseVersion))
		assert.Equal(t, "3.0.0", env.repo.version(t))
	})

	t.Run("strip on develop", func(t *testing.T) {
		env := newTestEnv("3.0.0-rc.2")

		err := env.run("step", config.StepStripPrereleaseVersion)

		require.Error(t, err)
		assert.Contains(t, env.out.String(), "not on master")
		assert.Equal(t, "3.0.0-rc.2", env.repo.version(t))
		assert.NotContains(t, env.repo.Calls, "write-metadata")
	})

	t.Run("unknown step", func(t *testing.T) {
		env := newTestEnv("1.0.0")

		err := env.run("step", "deploy")

		require.Error(t, err)
		assert.Contains(t, env.out.String(), "unknown step: deploy")
	})
}

func TestStepsCommand_YAML(t *testing.T) {
	env := newTestEnv("1.0.0")

	require.NoError(t, env.run("steps", "--yaml"))

	var infos []stepInfo
	require.NoError(t, yaml.Unmarshal(env.out.Bytes(), &infos))
	require.Len(t, infos, len(config.StepNames))
	for i, info := range infos {
		assert.Equal(t, config.StepNames[i], info.Name)
		assert.NotEmpty(t, info.Description)
		assert.Equal(t, i < len(config.DefaultReleaseSteps), info.Enabled, info.Name)
	}
}

func TestStepsCommand_Table(t *testing.T) {
	env := newTestEnv("1.0.0")

	require.NoError(t, env.run("steps"))
	assert.Contains(t, env.out.String(), "* ensure-clean")
	assert.Contains(t, env.out.String(), "  push-develop")
}

func TestRunbookFlag(t *testing.T) {
	env := newTestEnv("1.4.0-prerelease")
	env.repo.Branch = "master"
	env.app.Fs = afero.NewMemMapFs()
	env.app.Config.Project.Root = "/work"
	require.NoError(t, afero.WriteFile(env.app.Fs, filepath.Join("/work", "runbook.csv"), []byte(
		"step,enabled,description\nensure-clean,true,\ncheck-host-status,false,\nstrip-prerelease-version,true,\n",
	), 0644))

	err := env.run("release", "--github-token", "secret", "--runbook", "runbook.csv")

	require.NoError(t, err)
	assert.Equal(t, []string{config.StepEnsureClean, config.StepStripPrereleaseVersion}, env.app.Config.Release.Steps)
	assert.Empty(t, env.host.Calls)
	assert.Equal(t, "1.4.0", env.repo.version(t))
}

func TestRunbookFlag_UnknownStep(t *testing.T) {
	env := newTestEnv("1.4.0-prerelease")
	env.app.Fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(env.app.Fs, "/rb.csv", []byte("step\ndeploy\n"), 0644))

	err := env.run("release", "--github-token", "secret", "--runbook", "/rb.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step: deploy")
	assert.Empty(t, env.repo.Calls)
}

func TestLogFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: ""},
		{format: "console"},
		{format: "json"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			env := newTestEnv("1.0.0")
			env.app.Config.Log.Format = tt.format

			err := env.run("steps")

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown log format")
				assert.Nil(t, env.app.Logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, env.app.Logger)
		})
	}
}

func TestRunApp_ExitCodes(t *testing.T) {
	env := newTestEnv("1.0.0")
	res := runApp(env.app, []string{"release"})
	assert.Equal(t, 1, res.ExitCode)

	env = newTestEnv("1.0.0")
	res = runApp(env.app, []string{"bump"})
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)

	env = newTestEnv("1.0.0")
	res = runApp(env.app, []string{"no-such-command"})
	assert.Equal(t, 1, res.ExitCode)
}

func TestIsExitError(t *testing.T) {
	code, ok := IsExitError(NewExitError(3))
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	_, ok = IsExitError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = IsExitError(nil)
	assert.False(t, ok)
	assert.Equal(t, "exit status 3", NewExitError(3).Error())
}
