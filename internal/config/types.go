// Package config provides configuration loading and management for relflow.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults reproduce the standard develop/master release
// runbook, so most projects need no configuration file at all.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [ReleaseConfig] is the immutable input of one orchestrator run
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Command line flags (applied by the cli package)
//  2. Environment variables (RELFLOW_ prefix; GITHUB_TOKEN for the token)
//  3. Config file specified by RELFLOW_CONFIG_PATH
//  4. ./relflow.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"fmt"

	"relflow/internal/changelog"
	"relflow/internal/host"
	"relflow/internal/metadata"
	"relflow/internal/version"
)

// Step names of the release runbook, in their canonical order.
const (
	StepCheckHostStatus        = "check-host-status"
	StepEnsureClean            = "ensure-clean"
	StepCheckoutDevelop        = "checkout-develop"
	StepPullDevelop            = "pull-develop"
	StepCheckoutMaster         = "checkout-master"
	StepPullMaster             = "pull-master"
	StepMergeDevelop           = "merge-develop"
	StepStripPrereleaseVersion = "strip-prerelease-version"
	StepCommitReleaseChanges   = "commit-release-changes"
	StepCreateNewTag           = "create-new-tag"
	StepPushMaster             = "push-master"
	StepPublishRelease         = "publish-release"
	StepBumpDevelop            = "bump-develop"
	StepCommitBumpChanges      = "commit-bump-changes"
	StepPushDevelop            = "push-develop"
)

// StepNames lists every step name once, in canonical order.
var StepNames = []string{
	StepCheckHostStatus,
	StepEnsureClean,
	StepCheckoutDevelop,
	StepPullDevelop,
	StepCheckoutMaster,
	StepPullMaster,
	StepMergeDevelop,
	StepStripPrereleaseVersion,
	StepCommitReleaseChanges,
	StepCreateNewTag,
	StepPushMaster,
	StepPublishRelease,
	StepBumpDevelop,
	StepCommitBumpChanges,
	StepPushDevelop,
}

// IsStep reports whether name is a known step name.
func IsStep(name string) bool {
	for _, s := range StepNames {
		if s == name {
			return true
		}
	}
	return false
}

// FullReleaseSteps is the complete runbook: release master, then move develop
// to the next prerelease version.
var FullReleaseSteps = []string{
	StepCheckHostStatus,
	StepEnsureClean,
	StepCheckoutDevelop,
	StepPullDevelop,
	StepCheckoutMaster,
	StepPullMaster,
	StepMergeDevelop,
	StepStripPrereleaseVersion,
	StepCommitReleaseChanges,
	StepCreateNewTag,
	StepPushMaster,
	StepPublishRelease,
	StepCheckoutDevelop,
	StepBumpDevelop,
	StepCommitBumpChanges,
	StepPushDevelop,
}

// DefaultReleaseSteps is the sequence enabled out of the box. The remaining
// steps of [FullReleaseSteps] stay registered and can be enabled with
// release.steps or a runbook.
var DefaultReleaseSteps = FullReleaseSteps[:8:8]

// Config represents the root configuration structure.
type Config struct {
	// Release configures the runbook itself.
	Release ReleaseConfig `mapstructure:"release"`

	// Project locates the working tree and its metadata file.
	Project ProjectConfig `mapstructure:"project"`

	// Host configures the hosting provider.
	Host HostConfig `mapstructure:"host"`

	// Git configures the version control backend.
	Git GitConfig `mapstructure:"git"`

	// Log configures structured logging.
	Log LogConfig `mapstructure:"log"`
}

// ReleaseConfig is the input of one orchestrator run.
//
// It is built once, before the run, and never modified afterwards.
type ReleaseConfig struct {
	// BumpType is the component incremented by bump-develop.
	// Default: "minor"
	BumpType version.BumpType `mapstructure:"bump_type"`

	// GitHubToken authenticates release publishing. A release refuses to
	// start without it. Falls back to the GITHUB_TOKEN environment variable.
	GitHubToken string `mapstructure:"github_token"`

	// PrereleaseLabel is appended by bump-develop.
	// Default: "prerelease"
	PrereleaseLabel string `mapstructure:"prerelease_label"`

	// Remote is the git remote pulled from and pushed to.
	// Default: "origin"
	Remote string `mapstructure:"remote"`

	// DevelopBranch is the integration branch.
	// Default: "develop"
	DevelopBranch string `mapstructure:"develop_branch"`

	// MasterBranch is the release branch.
	// Default: "master"
	MasterBranch string `mapstructure:"master_branch"`

	// MergeStrategy is the conflict policy of merge-develop.
	// Default: "theirs"
	MergeStrategy string `mapstructure:"merge_strategy"`

	// Steps is the ordered list of enabled step names.
	// Default: [DefaultReleaseSteps]
	Steps []string `mapstructure:"steps"`

	// Runbook is an optional CSV runbook path. When set, its enabled rows
	// replace Steps.
	Runbook string `mapstructure:"runbook"`

	// ReleaseCount is how many of the newest tags publish-release publishes.
	// Default: 1
	ReleaseCount int `mapstructure:"release_count"`

	// Preset is the commit convention used for release notes.
	// Default: "angular"
	Preset string `mapstructure:"preset"`

	// IncludeMerges parses merge commits for release notes.
	// Default: true
	IncludeMerges bool `mapstructure:"include_merges"`
}

// ProjectConfig locates the project.
type ProjectConfig struct {
	// Root is the working tree directory. Reads and writes of the metadata
	// file are both relative to it.
	// Default: "."
	Root string `mapstructure:"root"`

	// MetadataFile is the metadata file name relative to Root.
	// Default: "package.json"
	MetadataFile string `mapstructure:"metadata_file"`
}

// HostConfig configures the hosting provider gateway.
type HostConfig struct {
	// Repository is "owner/name". Derived from the remote URL when empty.
	Repository string `mapstructure:"repository"`

	// StatusURL is the status endpoint.
	StatusURL string `mapstructure:"status_url"`

	// APIURL overrides the REST API base URL (GitHub Enterprise).
	APIURL string `mapstructure:"api_url"`

	// TimeoutSeconds bounds each HTTP request.
	// Default: 10
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// GitConfig configures the git binary.
type GitConfig struct {
	// BinaryPath is the git executable.
	// Default: "git"
	BinaryPath string `mapstructure:"binary_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error or none.
	// Default: "info"
	Level string `mapstructure:"level"`

	// Format is console or json.
	// Default: "console"
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Release: ReleaseConfig{
			BumpType:        version.DefaultBumpType,
			PrereleaseLabel: version.DefaultPrereleaseLabel,
			Remote:          "origin",
			DevelopBranch:   "develop",
			MasterBranch:    "master",
			MergeStrategy:   "theirs",
			Steps:           append([]string(nil), DefaultReleaseSteps...),
			ReleaseCount:    1,
			Preset:          changelog.PresetAngular,
			IncludeMerges:   true,
		},
		Project: ProjectConfig{
			Root:         ".",
			MetadataFile: metadata.DefaultFile,
		},
		Host: HostConfig{
			StatusURL:      host.DefaultStatusURL,
			TimeoutSeconds: int(host.DefaultStatusTimeout.Seconds()),
		},
		Git: GitConfig{
			BinaryPath: "git",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks values that cannot be corrected silently.
func (c ReleaseConfig) Validate() error {
	if !c.BumpType.IsValid() {
		return fmt.Errorf("%w: %q (want major, minor or patch)", version.ErrInvalidBumpType, string(c.BumpType))
	}
	if c.ReleaseCount < 1 {
		return fmt.Errorf("release_count must be at least 1, got %d", c.ReleaseCount)
	}
	if c.DevelopBranch == "" || c.MasterBranch == "" {
		return fmt.Errorf("develop_branch and master_branch are required")
	}
	if c.Remote == "" {
		return fmt.Errorf("remote is required")
	}
	return nil
}
