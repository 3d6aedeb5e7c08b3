package config

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
)

var (
	// ErrInvalidMode indicates an unknown execution mode.
	ErrInvalidMode = cdkpath.ErrInvalidMode

	// ErrMissingPath indicates the declaration root of the mode is not set.
	ErrMissingPath = errors.Base("missing declaration path")

	// ErrInvalidMaxParallel indicates a non-positive parallelism bound.
	ErrInvalidMaxParallel = errors.Base("invalid max parallel")

	// ErrInvalidCacheCapacity indicates a negative cache capacity.
	ErrInvalidCacheCapacity = errors.Base("invalid cache capacity")
)

// Validate checks if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []error

	mode, err := cdkpath.ParseMode(cfg.Mode)
	if err != nil {
		errs = append(errs, err)
	}

	switch {
	case mode == cdkpath.ModeDependency && cfg.NodeModules == "":
		errs = append(errs, errors.Errorf("%w: node_modules is required in %s mode", ErrMissingPath, mode))
	case mode == cdkpath.ModeLocal && cfg.Checkout == "":
		errs = append(errs, errors.Errorf("%w: checkout is required in %s mode", ErrMissingPath, mode))
	}

	if cfg.Runner.MaxParallel <= 0 {
		errs = append(errs, errors.Errorf("%w: runner.max_parallel must be positive, got %d", ErrInvalidMaxParallel, cfg.Runner.MaxParallel))
	}

	// Zero falls back to the default capacity.
	if cfg.Cache.Capacity < 0 {
		errs = append(errs, errors.Errorf("%w: cache.capacity cannot be negative, got %d", ErrInvalidCacheCapacity, cfg.Cache.Capacity))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear formatting.
// A single error is returned as is so that it can still be matched.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return errors.WithStack(validationError{errs: errs, msg: fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))})
}

type validationError struct {
	errs []error
	msg  string
}

func (e validationError) Error() string {
	return e.msg
}

func (e validationError) Unwrap() []error {
	return e.errs
}
