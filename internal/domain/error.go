package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrUnauthorized    = errors.New("access denied")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRunReadOnly     = errors.New("run is completed and read-only")
	ErrNoRunSelected   = errors.New("no run selected")
	ErrLastField       = errors.New("at least one field must remain")
	ErrStaleResponse   = errors.New("response superseded by a newer request")
)
