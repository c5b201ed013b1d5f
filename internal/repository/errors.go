package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrInvalidArgument indicates the input could not be persisted as given.
var ErrInvalidArgument = errors.New("repository: invalid argument")
