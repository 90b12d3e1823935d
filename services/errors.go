package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by every service. Match them with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrPersistence = errors.New("persistence error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
)

// OpError carries the kind of a failure, the operation that failed and a
// detail string fit to show a user.
type OpError struct {
	Kind   error
	Op     string
	Detail string
	Err    error
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == e.Kind }

func validationError(op, format string, args ...interface{}) error {
	return &OpError{Kind: ErrValidation, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func notFoundError(op, format string, args ...interface{}) error {
	return &OpError{Kind: ErrNotFound, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func conflictError(op, format string, args ...interface{}) error {
	return &OpError{Kind: ErrConflict, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func persistenceError(op string, err error, format string, args ...interface{}) error {
	return &OpError{Kind: ErrPersistence, Op: op, Detail: fmt.Sprintf(format, args...), Err: err}
}

// ErrorDetail returns the user-facing detail of a service error
func ErrorDetail(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Detail
	}
	return err.Error()
}
