package runner

import "context"

// Adapter binds one version family to the declaration it is scraped from
// and the service API that lists it.
type Adapter[T any] interface {
	// DeclaredVersions returns the versions found in the CDK declaration.
	DeclaredVersions(ctx context.Context) ([]DeprecableVersion[T], error)
	// LiveVersions returns the versions currently listed by the service.
	// It runs concurrently with DeclaredVersions.
	LiveVersions(ctx context.Context) ([]DeprecableVersion[T], error)
	// Identity reports whether a declared and a live version are the same.
	Identity(declared, live T) bool
	// ID renders a version for reports.
	ID(v T) string
}

// Snippeter is implemented by adapters that can render the declaration a
// reconciled version would need.
type Snippeter[T any] interface {
	Snippet(v DeprecableVersion[T]) string
}

// Filter is implemented by adapters that exclude some live versions from
// reconciliation.
type Filter[T any] interface {
	Ignore(v DeprecableVersion[T]) bool
}

// StringIdentity compares string versions.
func StringIdentity(declared, live string) bool {
	return declared == live
}
