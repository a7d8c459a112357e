package model

import "errors"

var (
	// ErrUndeclaredField is returned when an event names a status field the target kind does not declare.
	ErrUndeclaredField = errors.New("undeclared status field")
	// ErrInvalidValue is returned when an event value does not decode into the field's type.
	ErrInvalidValue = errors.New("invalid status value")
)
