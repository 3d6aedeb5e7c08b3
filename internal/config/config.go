// Package config loads the settings of a cdk-sdk-versions run.
package config

import (
	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// Config represents the complete configuration of a run.
type Config struct {
	// Mode is where declaration files are read from: dependency or local.
	Mode string `yaml:"mode" mapstructure:"mode"`
	// NodeModules is the node_modules directory holding aws-cdk-lib.
	NodeModules string `yaml:"node_modules" mapstructure:"node_modules"`
	// Checkout is the root of an aws-cdk clone, used in local mode.
	Checkout string `yaml:"checkout" mapstructure:"checkout"`
	// Strict fails on declaration files with syntax errors.
	Strict bool `yaml:"strict" mapstructure:"strict"`

	AWS    AWSConfig    `yaml:"aws" mapstructure:"aws"`
	Runner RunnerConfig `yaml:"runner" mapstructure:"runner"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
}

// AWSConfig selects the credentials used for the live lists.
// Empty values fall back to the shared AWS configuration.
type AWSConfig struct {
	Region  string `yaml:"region" mapstructure:"region"`
	Profile string `yaml:"profile" mapstructure:"profile"`
}

// RunnerConfig controls how a batch of runners is executed.
type RunnerConfig struct {
	Parallel        bool `yaml:"parallel" mapstructure:"parallel"`
	MaxParallel     int  `yaml:"max_parallel" mapstructure:"max_parallel"`
	ContinueOnError bool `yaml:"continue_on_error" mapstructure:"continue_on_error"`
}

// CacheConfig sizes the declaration cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mode:        string(cdkpath.ModeDependency),
		NodeModules: "node_modules",
		Checkout:    "../aws-cdk",
		Runner: RunnerConfig{
			MaxParallel:     runner.DefaultMaxParallel,
			ContinueOnError: true,
		},
		Cache: CacheConfig{
			Capacity: declaration.DefaultCacheCapacity,
		},
	}
}

// Resolver returns the declaration file resolver for the configured mode.
// The configuration must have been validated.
func (c *Config) Resolver() cdkpath.Resolver {
	mode, _ := cdkpath.ParseMode(c.Mode)
	return cdkpath.Resolver{
		Mode:        mode,
		NodeModules: c.NodeModules,
		Checkout:    c.Checkout,
	}
}

// BatchOptions returns the batch settings of the configuration.
func (c *Config) BatchOptions() runner.BatchOptions {
	return runner.BatchOptions{
		Parallel:        c.Runner.Parallel,
		MaxParallel:     c.Runner.MaxParallel,
		ContinueOnError: c.Runner.ContinueOnError,
	}
}
