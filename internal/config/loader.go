package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
)

// FileName is the configuration file looked up in the root directory,
// with any extension viper supports.
const FileName = ".cdk-sdk-versions"

// EnvPrefix prefixes the environment overrides, e.g. CDK_SDK_VERSIONS_MODE.
const EnvPrefix = "CDK_SDK_VERSIONS"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	getenv     func(string) string
}

// NewLoader creates a loader looking for the configuration file in rootDir.
// A missing file is not an error.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir, getenv: os.Getenv}
}

// NewFileLoader creates a loader reading the configuration file at path.
// The file must exist.
func NewFileLoader(path string) Loader {
	return &loader{configFile: path, getenv: os.Getenv}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CDK_SDK_VERSIONS_*)
// 2. Config file (.cdk-sdk-versions.yaml)
// 3. NODE_ENV=development, for the mode only
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"mode", "node_modules", "checkout", "strict",
		"aws.region", "aws.profile",
		"runner.parallel", "runner.max_parallel", "runner.continue_on_error",
		"cache.capacity",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a searched file may be missing.
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Mode == "" {
		cfg.Mode = string(cdkpath.ModeDependency)
		if mode, ok := cdkpath.ModeFromEnv(l.getenv); ok {
			cfg.Mode = string(mode)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values. The mode has none so
// that NODE_ENV can still select it.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("node_modules", defaults.NodeModules)
	v.SetDefault("checkout", defaults.Checkout)
	v.SetDefault("strict", defaults.Strict)

	v.SetDefault("aws.region", defaults.AWS.Region)
	v.SetDefault("aws.profile", defaults.AWS.Profile)

	v.SetDefault("runner.parallel", defaults.Runner.Parallel)
	v.SetDefault("runner.max_parallel", defaults.Runner.MaxParallel)
	v.SetDefault("runner.continue_on_error", defaults.Runner.ContinueOnError)

	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
}

// LoadConfig loads the configuration file of the current directory.
func LoadConfig() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(dir).Load()
}
