// Package persistence defines where validation verdicts are recorded.
package persistence

import (
	"context"
	"time"
)

const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Record is one verdict line.
type Record struct {
	Time       time.Time `json:"time"`
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	Name       string    `json:"name,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Path       string    `json:"path,omitempty"`
	Message    string    `json:"message,omitempty"`
	Preview    string    `json:"raw_preview,omitempty"`
	DurationMs float64   `json:"duration_ms"`
}

type VerdictSink interface {
	Write(ctx context.Context, record Record) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
