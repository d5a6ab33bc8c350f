package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already recorded")
	// ErrConnection wraps driver failures opening or pinging the database.
	ErrConnection   = errors.New("history database unavailable")
	ErrClosed       = errors.New("history is closed")
	ErrInvalidID    = errors.New("invalid run id")
	ErrUnknownField = errors.New("unknown filter field")
)

// NotFoundError names the missing record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError for entity/id.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsConnection(err error) bool    { return errors.Is(err, ErrConnection) }
