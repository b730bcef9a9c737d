package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSinkClosed indicates a write after Close.
	ErrSinkClosed = errors.New("verdict sink closed")
)

// SinkError wraps a storage failure with the operation and target.
type SinkError struct {
	Op   string
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
