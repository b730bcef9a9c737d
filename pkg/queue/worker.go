// Package queue validates candidates pulled from a Redis list and pushes verdicts to another.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/wflguard/pkg/config"
	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/services"
	redis "github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
)

// Validator is the part of services.Validation the worker needs.
type Validator interface {
	Validate(ctx context.Context, raw []byte, req services.Request) (*services.Verdict, error)
}

// Job is the optional envelope around a candidate. A message without a "candidate" key is
// itself the candidate.
type Job struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Candidate   json.RawMessage `json:"candidate"`
	CheckOnly   *bool           `json:"checkOnly,omitempty"`
	StrictDates *bool           `json:"strictDates,omitempty"`
}

// Reply is pushed to the verdicts list for every job.
type Reply struct {
	ID       string            `json:"id,omitempty"`
	Name     string            `json:"name,omitempty"`
	Verdict  *services.Verdict `json:"verdict,omitempty"`
	Feedback string            `json:"feedback,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// NewClient connects to Redis using a URL when one is configured, the address otherwise.
func NewClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	var opts *redis.Options

	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}

		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

type Worker struct {
	client redis.UniversalClient
	svc    Validator
	cfg    config.WorkerConfig
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(client redis.UniversalClient, svc Validator, cfg config.WorkerConfig, logger *slog.Logger) (*Worker, error) {
	if client == nil {
		return nil, errors.New("queue worker requires a redis client")
	}

	if svc == nil {
		return nil, errors.New("queue worker requires a validator")
	}

	cfg.ApplyDefaults()

	if err := config.ValidateWorkerConfig(cfg); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.WithModule("queue_worker")
	}

	return &Worker{
		client: client,
		svc:    svc,
		cfg:    cfg,
		logger: logger.With("candidates", cfg.Queues.Candidates, "verdicts", cfg.Queues.Verdicts),
		stopCh: make(chan struct{}),
	}, nil
}

// Start launches the consumers and returns immediately.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting queue worker", "concurrency", w.cfg.Concurrency)

	for i := range w.cfg.Concurrency {
		w.wg.Add(1)

		go w.consume(log.NewContext(ctx, w.logger.With("consumer", i)))
	}

	return nil
}

func (w *Worker) consume(ctx context.Context) {
	defer w.wg.Done()

	logger := log.FromContext(ctx, w.logger)

	for {
		select {
		case <-w.stopCh:
			logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if _, err := w.ProcessOne(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}

				logger.ErrorContext(ctx, "Error processing candidate", "error", err)

				select {
				case <-time.After(time.Second):
				case <-w.stopCh:
				case <-ctx.Done():
				}
			}
		}
	}
}

// ProcessOne waits up to the poll timeout for a candidate, validates it and pushes the reply.
// It reports whether a candidate was handled.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	result, err := w.client.BLPop(ctx, w.cfg.Queues.PollTimeout, w.cfg.Queues.Candidates).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to pop candidate from queue: %w", err)
	}

	if len(result) < 2 {
		return false, nil
	}

	reply := w.handle(ctx, []byte(result[1]))

	payload, err := json.Marshal(reply)
	if err != nil {
		return true, fmt.Errorf("failed to encode reply: %w", err)
	}

	if err := w.client.RPush(ctx, w.cfg.Queues.Verdicts, payload).Err(); err != nil {
		return true, fmt.Errorf("failed to push verdict: %w", err)
	}

	return true, nil
}

func (w *Worker) handle(ctx context.Context, message []byte) Reply {
	job := parseJob(message)

	req := services.Request{
		Source:      "worker",
		Name:        job.Name,
		CheckOnly:   w.cfg.Validation.CheckOnly,
		StrictDates: w.cfg.Validation.StrictDates,
		SkipSchema:  w.cfg.Validation.SkipSchema,
		Preview:     w.cfg.Validation.Preview,
	}

	if job.CheckOnly != nil {
		req.CheckOnly = *job.CheckOnly
	}

	if job.StrictDates != nil {
		req.StrictDates = *job.StrictDates
	}

	raw := []byte(job.Candidate)

	// A string candidate is generator output that still has to be extracted.
	switch {
	case !gjson.ValidBytes(raw):
		req.Extract = true
	case gjson.ParseBytes(raw).Type == gjson.String:
		raw = []byte(gjson.ParseBytes(raw).String())
		req.Extract = true
	}

	reply := Reply{ID: job.ID, Name: job.Name}

	verdict, err := w.svc.Validate(ctx, raw, req)
	if err != nil {
		w.logger.WarnContext(ctx, "Candidate could not be validated", "id", job.ID, "error", err)
		reply.Error = err.Error()

		return reply
	}

	reply.Verdict = verdict
	reply.Feedback = verdict.Feedback()

	return reply
}

func parseJob(message []byte) Job {
	if gjson.ValidBytes(message) && gjson.GetBytes(message, "candidate").Exists() {
		var job Job
		if err := json.Unmarshal(message, &job); err == nil {
			return job
		}
	}

	return Job{Candidate: message}
}

// Stop signals the consumers and waits for in-flight candidates. The client is left open.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Stopping queue worker")

	w.stopOnce.Do(func() { close(w.stopCh) })

	done := make(chan struct{})

	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
