package ewm

import (
	"errors"
	"fmt"
)

// The three terminal error kinds surfaced to callers. Every operation either
// fails with one of these (wrapped with a contextual message) or passes a
// collaborator failure through unchanged.
var ErrNotFound = errors.New("not found")
var ErrInvalidArgument = errors.New("invalid argument")
var ErrConflict = errors.New("conflict")

// NotFoundError wraps ErrNotFound with a formatted message.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidArgumentError wraps ErrInvalidArgument with a formatted message.
func InvalidArgumentError(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

// ConflictError wraps ErrConflict with a formatted message.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
