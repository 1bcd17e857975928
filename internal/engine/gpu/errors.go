package gpu

import "fmt"

// UsageError reports a defect in how the device or renderer is driven: a call
// from a thread that does not own the context, or an operation the active
// render target does not support. It is raised with panic, never returned.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("gpu: %s: %s", e.Op, e.Msg)
}

// Usagef panics with a *UsageError.
func Usagef(op, format string, args ...any) {
	panic(&UsageError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
