// Package cdkpath resolves CDK declaration files, either in the installed
// aws-cdk-lib dependency or in a local aws-cdk checkout.
package cdkpath

import (
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Mode selects where declaration files are read from.
type Mode string

const (
	// ModeDependency reads the .d.ts files shipped in node_modules.
	ModeDependency Mode = "dependency"
	// ModeLocal reads the .ts sources of an aws-cdk checkout.
	ModeLocal Mode = "local"
)

// LibModule is the package holding the stable CDK constructs.
const LibModule = "aws-cdk-lib"

var ErrInvalidMode = errors.Base("invalid execution mode")

// ParseMode parses a mode name. NODE_ENV style names are accepted:
// "development" is local, "production" is dependency.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeDependency), "production":
		return ModeDependency, nil
	case string(ModeLocal), "development":
		return ModeLocal, nil
	default:
		return "", errors.Errorf("%w: %q (must be %s or %s)", ErrInvalidMode, s, ModeDependency, ModeLocal)
	}
}

// ModeFromEnv derives the mode from NODE_ENV when it is set to development.
func ModeFromEnv(getenv func(string) string) (Mode, bool) {
	if getenv("NODE_ENV") == "development" {
		return ModeLocal, true
	}
	return "", false
}

// Path is a declaration file relative to its package root, in its .d.ts form.
type Path struct {
	Module string
	File   string
}

// Lib returns a file of aws-cdk-lib, such as "aws-rds/lib/instance-engine.d.ts".
func Lib(file string) Path {
	return Path{Module: LibModule, File: file}
}

// Module returns a file of another CDK package, such as an alpha module.
func Module(module, file string) Path {
	return Path{Module: module, File: file}
}

func (p Path) String() string {
	return p.Module + "/" + p.File
}

// Resolver maps declaration paths to files on disk.
type Resolver struct {
	Mode Mode
	// NodeModules is the node_modules directory holding aws-cdk-lib.
	NodeModules string
	// Checkout is the root of a clone of the aws-cdk repository.
	Checkout string
}

// Resolve returns the file to read for p.
func (r Resolver) Resolve(p Path) string {
	module := p.Module
	if module == "" {
		module = LibModule
	}

	if r.Mode == ModeLocal {
		// Sources are read directly to skip the build step.
		file := strings.TrimSuffix(p.File, ".d.ts")
		if file != p.File {
			file += ".ts"
		}
		return filepath.Join(r.Checkout, "packages", filepath.FromSlash(module), filepath.FromSlash(file))
	}

	return filepath.Join(r.NodeModules, filepath.FromSlash(module), filepath.FromSlash(p.File))
}
