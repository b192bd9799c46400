package pool

import "github.com/pkg/errors"

// Error wraps a trial failure (an environment error propagated up from a
// descent, or an internal invariant violation) with the operation that
// was in progress when the pool aborted, matching spec.md §7's EnvError
// taxonomy member: the trial aborts and the pool surfaces the first
// error rather than retrying.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "pool: " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: errors.WithStack(err)}
}
