package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the renderer matches exactly one of
// these through errors.Is.
var (
	ErrSetup              = errors.New("setup failure")
	ErrSyncTimeout        = errors.New("synchronization timeout")
	ErrSubmission         = errors.New("gpu submission failure")
	ErrLookupMiss         = errors.New("resource not registered")
	ErrShaderLoad         = errors.New("shader blob unavailable")
	ErrSwapchainOutOfDate = errors.New("swapchain resized or recreated, booting")
)

// Error ties a failure kind to the operation that produced it and the
// underlying cause, if any.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func NewError(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Errorf builds an Error whose cause is a formatted message.
func Errorf(kind error, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// IsFatal reports whether err must stop the run loop. Only an out-of-date
// swapchain is recoverable.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrSwapchainOutOfDate)
}
