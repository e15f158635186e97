package graph

import "errors"

var (
	ErrNotFound = errors.New("entity not found")
	ErrNotParam = errors.New("no such parameter")
	ErrReadOnly = errors.New("parameter is read-only")
)
