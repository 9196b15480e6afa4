package storage

import "errors"

var (
	// ErrSectionNotFound is returned when a mutation targets a section the document does not declare.
	ErrSectionNotFound = errors.New("section not found")
	// ErrEmptyName is returned when a section or option name is empty.
	ErrEmptyName = errors.New("section and option names must not be empty")
	// ErrMissingSectionHeader is returned when an option precedes the first section header.
	ErrMissingSectionHeader = errors.New("file contains no section headers")
	// ErrUnencodable is returned for option names or values that cannot be written
	// so that they read back unchanged.
	ErrUnencodable = errors.New("cannot be stored unchanged")
)
