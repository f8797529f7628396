package bridge

import "errors"

// Registry and dispatch error kinds. Callers match with errors.Is; the
// wrapped form carries the offending identifier or method.
var (
	ErrDuplicatePlugin    = errors.New("plugin already registered")
	ErrPluginNotFound     = errors.New("plugin not registered")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrMalformedMessage   = errors.New("malformed message")
)
