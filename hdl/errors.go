package hdl

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks fatal construction-time errors: mismatched
// bit widths, two drivers staging a value for the same register or
// memory address in one cycle, or an out-of-range address.
var ErrConfiguration = errors.New("configuration error")

// ErrInvariant marks fatal run-time scheduling errors, such as a
// commit without a preceding evaluation phase. A violated invariant
// aborts the run rather than producing a corrupted trace.
var ErrInvariant = errors.New("simulation invariant violation")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func invariantErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// recoverEngineError converts a panic carrying an engine error into a
// returned error. Other panics propagate unchanged. Combinational
// logic is written as plain Go expressions, so shape errors surface as
// panics at evaluation time; this funnels them into the error return
// of Build and Step.
func recoverEngineError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if ok && (errors.Is(e, ErrConfiguration) || errors.Is(e, ErrInvariant)) {
		*err = e
		return
	}
	panic(r)
}
