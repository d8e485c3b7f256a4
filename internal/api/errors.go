package api

import (
	"context"
	"errors"
	"fmt"
)

// Op names a backend operation.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Error is a failed backend call: either a transport failure (Err set) or a
// non-2xx response (Status set).
type Error struct {
	Op        Op
	RequestID string
	Status    int
	Body      string
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s comptes: status %d: %s", e.Op, e.Status, e.Body)
		}
		return fmt.Sprintf("%s comptes: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s comptes: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the call gave up waiting for the backend.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool { return e.Status == 404 }
