package engine

import (
	"errors"
	"fmt"
)

// ErrNoStopCondition is returned by New when the configuration has no way to terminate.
var ErrNoStopCondition = errors.New("at least one of max generations, stop unimproved or max duration must be set")

// ErrInvalidConfig is returned by New for parameters that would prevent selection from progressing.
var ErrInvalidConfig = errors.New("invalid genetic algorithm configuration")

// InvariantError reports a broken internal guarantee. It is never retried.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

func invariantf(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
