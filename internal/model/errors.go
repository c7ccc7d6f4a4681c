package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrExists     = errors.New("already exists")
	ErrCheckedOut = errors.New("already checked out")
	ErrRenting    = errors.New("has an open rental")
	ErrReferenced = errors.New("still referenced")
)

func NewError(model string, err error) error {
	return fmt.Errorf("%s: %w", strings.ToLower(model), err)
}

// NotFoundError is returned when a lookup by column value matched no rows.
type NotFoundError struct {
	Table  string
	Column string
	Value  any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v not found in %s", e.Table, e.Value, e.Column)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DatabaseError wraps a failed statement execution. Message holds the
// store's own diagnostic text.
type DatabaseError struct {
	Op      string
	Message string
	Err     error
}

func (e *DatabaseError) Error() string {
	return "database: " + e.Op + ": " + e.Message
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func IsDatabaseError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr)
}
