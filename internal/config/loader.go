package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"relflow/internal/version"
)

// EnvPrefix prefixes every environment variable read by [Loader].
const EnvPrefix = "RELFLOW"

// ConfigPathEnv names an explicit config file.
const ConfigPathEnv = "RELFLOW_CONFIG_PATH"

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = "relflow"

// Loader handles configuration loading with Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from file and environment.
//
// A missing config file is not an error; defaults apply.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()
	l.bindEnv()

	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		l.v.SetConfigFile(configPath)
	} else {
		l.v.SetConfigName(DefaultConfigName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile loads configuration from a specific file, still honouring
// environment overrides.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.setDefaults()
	l.bindEnv()
	l.v.SetConfigFile(path)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Release.BumpType == "" {
		cfg.Release.BumpType = DefaultConfig().Release.BumpType
	}
	cfg.Release.BumpType = normalizeBumpType(cfg.Release.BumpType)
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("release.bump_type", string(d.Release.BumpType))
	l.v.SetDefault("release.github_token", "")
	l.v.SetDefault("release.prerelease_label", d.Release.PrereleaseLabel)
	l.v.SetDefault("release.remote", d.Release.Remote)
	l.v.SetDefault("release.develop_branch", d.Release.DevelopBranch)
	l.v.SetDefault("release.master_branch", d.Release.MasterBranch)
	l.v.SetDefault("release.merge_strategy", d.Release.MergeStrategy)
	l.v.SetDefault("release.steps", d.Release.Steps)
	l.v.SetDefault("release.runbook", "")
	l.v.SetDefault("release.release_count", d.Release.ReleaseCount)
	l.v.SetDefault("release.preset", d.Release.Preset)
	l.v.SetDefault("release.include_merges", d.Release.IncludeMerges)

	l.v.SetDefault("project.root", d.Project.Root)
	l.v.SetDefault("project.metadata_file", d.Project.MetadataFile)

	l.v.SetDefault("host.repository", "")
	l.v.SetDefault("host.status_url", d.Host.StatusURL)
	l.v.SetDefault("host.api_url", "")
	l.v.SetDefault("host.timeout_seconds", d.Host.TimeoutSeconds)

	l.v.SetDefault("git.binary_path", d.Git.BinaryPath)
	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.format", d.Log.Format)
}

func (l *Loader) bindEnv() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// Short names for the settings operators change most.
	l.v.BindEnv("release.github_token", "RELFLOW_GITHUB_TOKEN", "GITHUB_TOKEN")
	l.v.BindEnv("release.bump_type", "RELFLOW_BUMP_TYPE")
	l.v.BindEnv("project.root", "RELFLOW_PROJECT_ROOT")
	l.v.BindEnv("log.level", "RELFLOW_LOG_LEVEL")
}

func normalizeBumpType(t version.BumpType) version.BumpType {
	return version.BumpType(strings.ToLower(strings.TrimSpace(string(t))))
}
