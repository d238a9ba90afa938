package repository

import "errors"

// ErrNotFound is returned when no todo exists for the given id.
var ErrNotFound = errors.New("todo not found")
