package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when no record of Kind has the business identifier ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", err.Kind, err.ID)
}

// UniquenessError is returned when a record of Kind already holds Value in Field.
type UniquenessError struct {
	Kind  string
	Field string
	Value string
}

func NewUniquenessError(kind, field, value string) error {
	return &UniquenessError{Kind: kind, Field: field, Value: value}
}

func (err UniquenessError) Error() string {
	return fmt.Sprintf("a %s with this %s already exists", err.Kind, err.Field)
}

// ResolutionError is returned when a cross-reference (Ref) points to a Kind ID that is not available.
type ResolutionError struct {
	Kind string
	ID   string
	Ref  string
}

func NewResolutionError(kind, id, ref string) error {
	return &ResolutionError{Kind: kind, ID: id, Ref: ref}
}

func (err ResolutionError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q", err.Ref, err.Kind, err.ID)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsUniqueness(err error) bool {
	_, ok := errors.Cause(err).(*UniquenessError)
	return ok
}

func IsResolution(err error) bool {
	_, ok := errors.Cause(err).(*ResolutionError)
	return ok
}
