// Package runner reconciles the versions declared by the CDK with the
// versions a live service reports, one runner per version family.
package runner

// DeprecableVersion is a version and whether it is deprecated.
type DeprecableVersion[T any] struct {
	Version      T
	IsDeprecated bool
}

// Live wraps v as a live version.
func Live[T any](v T, deprecated bool) DeprecableVersion[T] {
	return DeprecableVersion[T]{Version: v, IsDeprecated: deprecated}
}
