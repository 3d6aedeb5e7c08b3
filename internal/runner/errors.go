package runner

import "gitlab.com/tozd/go/errors"

// ErrUnknownIdentifierPattern is logged when a declared name matches neither
// a known symbol nor any known initializer or summary pattern.
var ErrUnknownIdentifierPattern = errors.Base("unknown identifier pattern")
