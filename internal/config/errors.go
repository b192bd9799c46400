package config

import "fmt"

// Error reports a fatal configuration problem: an unknown algorithm or
// environment id, a malformed parameter, or a dimension mismatch between a
// reward vector and configured bounds. Per spec it is always fatal at
// setup — there is no recovery path.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("config error: %s", e.Msg) }

// Errorf builds a config.Error.
func Errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
