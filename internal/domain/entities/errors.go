package entities

import "fmt"

// UnknownResourceError is returned when a caller names a resource that is not
// one of posts, projects or tech.
type UnknownResourceError struct {
	Key string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown data key: %s", e.Key)
}

// ValidationError carries the first schema violation found in a payload.
type ValidationError struct {
	Resource ResourceKey
	Message  string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseError means the file on disk exists but does not hold valid JSON.
type ParseError struct {
	Resource ResourceKey
	Path     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s (%s): %v", e.Resource, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError wraps a filesystem failure: mkdir, read, temp write, sync or rename.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
