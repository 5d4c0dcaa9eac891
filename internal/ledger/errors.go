package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")
)

// Error describes a failed ledger operation.
type Error struct {
	Op   string // operation, e.g. "stop session"
	Kind error  // one of the Err* kinds
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFound(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func invalid(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func conflict(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// storageErr wraps a store failure. Ledger errors and context errors pass
// through untouched, and a duplicate open session becomes a conflict.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{Op: op, Kind: ErrConflict, Msg: "line already has an open session", Err: err}
	}
	return &Error{Op: op, Kind: ErrStorage, Err: err}
}
