package store

import "errors"

var (
	// ErrDuplicateID is returned by Add when a route with the same id exists.
	ErrDuplicateID = errors.New("route id already exists")
	// ErrInvalidType is returned by Add when the route type is not bus or tram.
	ErrInvalidType = errors.New("route type must be bus or tram")
	// ErrNotFound is returned by Get when no route has the id.
	ErrNotFound = errors.New("route not found")
)
