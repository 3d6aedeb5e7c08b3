package provider

import "gitlab.com/tozd/go/errors"

// ErrUnknownRunner is returned when a selector matches no runner or group.
var ErrUnknownRunner = errors.Base("unknown runner")
