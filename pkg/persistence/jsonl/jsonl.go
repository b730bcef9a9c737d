// Package jsonl appends verdict records to a newline-delimited JSON file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/wflguard/pkg/persistence"
)

// DefaultFlushEvery is the number of records written between fsyncs.
const DefaultFlushEvery = 50

type Option func(*Sink)

func WithFlushEvery(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.flushEvery = n
		}
	}
}

// Sink is safe for concurrent use.
type Sink struct {
	path       string
	flushEvery int

	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	written int
	closed  bool
}

// Open creates parent directories and opens path for appending. A "file://" prefix is accepted.
func Open(path string, opts ...Option) (*Sink, error) {
	cleanPath := strings.TrimPrefix(path, "file://")

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, &persistence.SinkError{Op: "mkdir", Path: cleanPath, Err: err}
	}

	f, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &persistence.SinkError{Op: "open", Path: cleanPath, Err: err}
	}

	s := &Sink{
		path:       cleanPath,
		flushEvery: DefaultFlushEvery,
		file:       f,
		buf:        bufio.NewWriter(f),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(_ context.Context, record persistence.Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrSinkClosed
	}

	if _, err := s.buf.Write(append(line, '\n')); err != nil {
		return &persistence.SinkError{Op: "write", Path: s.path, Err: err}
	}

	s.written++
	if s.written%s.flushEvery == 0 {
		return s.sync()
	}

	return nil
}

// Flush forces buffered records to disk.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrSinkClosed
	}

	return s.sync()
}

func (s *Sink) sync() error {
	if err := s.buf.Flush(); err != nil {
		return &persistence.SinkError{Op: "flush", Path: s.path, Err: err}
	}

	if err := s.file.Sync(); err != nil {
		return &persistence.SinkError{Op: "fsync", Path: s.path, Err: err}
	}

	return nil
}

// HealthCheck reports whether the log file still exists.
func (s *Sink) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return &persistence.SinkError{Op: "stat", Path: s.path, Err: err}
	}

	return nil
}

func (s *Sink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	syncErr := s.sync()

	if err := s.file.Close(); err != nil && syncErr == nil {
		return &persistence.SinkError{Op: "close", Path: s.path, Err: err}
	}

	return syncErr
}
