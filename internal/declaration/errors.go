package declaration

import "gitlab.com/tozd/go/errors"

var (
	// ErrParse indicates the declaration file could not be read or holds
	// nothing the TypeScript grammar recognizes as a declaration.
	ErrParse = errors.Base("declaration parse error")

	// ErrNoDeclarationsFound indicates a parsed file without a single node of
	// the requested kinds. This almost always means a wrong path or an
	// upstream format change.
	ErrNoDeclarationsFound = errors.Base("no declarations found")
)
