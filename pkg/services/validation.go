package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/dukex/wflguard/pkg/eventbus"
	"github.com/dukex/wflguard/pkg/events"
	"github.com/dukex/wflguard/pkg/extract"
	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/metrics"
	"github.com/dukex/wflguard/pkg/models"
	"github.com/dukex/wflguard/pkg/otelhelper"
	"github.com/dukex/wflguard/pkg/persistence"
	"github.com/dukex/wflguard/pkg/schema"
	"github.com/dukex/wflguard/pkg/validation"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const previewLength = 400

// Request controls one pass through the pipeline.
type Request struct {
	Source string `validate:"omitempty,oneof=cli api worker"`
	Name   string

	// Extract pulls the JSON object out of free-form text first.
	Extract bool
	// CheckOnly judges the candidate without returning the normalized workflow.
	CheckOnly   bool
	StrictDates bool
	SkipSchema  bool
	Preview     int `validate:"min=0,max=100"`
}

type Option func(*Validation)

func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(s *Validation) {
		s.bus = bus
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Validation) {
		s.metrics = recorder
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Validation) {
		s.tracer = tracer
	}
}

func WithVerdictSink(sink persistence.VerdictSink) Option {
	return func(s *Validation) {
		s.sink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Validation) {
		s.logger = logger
	}
}

// WithClock sets the time source for schedule defaults and previews.
func WithClock(now func() time.Time) Option {
	return func(s *Validation) {
		s.now = now
	}
}

// WithWorkerID tags published events with the worker that produced them.
func WithWorkerID(id string) Option {
	return func(s *Validation) {
		s.workerID = id
	}
}

// Validation runs candidates through extraction, the schema gate and the semantic engine.
type Validation struct {
	lenient *validation.Validator
	strict  *validation.Validator

	bus      eventbus.EventPublisher
	metrics  *metrics.Recorder
	tracer   trace.Tracer
	sink     persistence.VerdictSink
	logger   *slog.Logger
	now      func() time.Time
	workerID string
	validate *validator.Validate
}

// NewValidation creates a validation service. Every side channel is optional.
func NewValidation(opts ...Option) *Validation {
	s := &Validation{
		tracer:   otelhelper.GlobalTracer("wflguard"),
		logger:   log.WithModule("services"),
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(s)
	}

	engineLogger := s.logger.With("component", "engine")
	s.lenient = validation.New(validation.WithClock(s.now), validation.WithLogger(engineLogger))
	s.strict = validation.New(validation.WithClock(s.now), validation.WithLogger(engineLogger), validation.WithStrictDates())

	return s
}

// HealthCheck reports the state of the verdict log, the only stateful dependency.
func (s *Validation) HealthCheck(ctx context.Context) (string, bool) {
	if s.sink == nil {
		return "Verdict log disabled", true
	}

	if err := s.sink.HealthCheck(ctx); err != nil {
		return "Verdict log is unhealthy: " + err.Error(), false
	}

	return "Verdict log is healthy", true
}

// Validate judges raw and returns its verdict. Rejections are reported in the verdict only;
// the error is reserved for bad requests and infrastructure failures.
func (s *Validation) Validate(ctx context.Context, raw []byte, req Request) (*Verdict, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("validate", "invalid_request", err.Error(), ErrInvalidRequest)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, NewValidationError("validate", "empty_document", "", ErrEmptyDocument)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "wflguard.validate",
		attribute.String(otelhelper.SourceKey, req.Source),
		attribute.Bool(otelhelper.CheckOnlyKey, req.CheckOnly),
	)
	defer span.End()

	started := time.Now()

	verdict, doc, err := s.run(ctx, raw, req)
	if err != nil {
		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "validation pipeline failed", "name", req.Name, "error", err)

		return nil, err
	}

	verdict.Duration = time.Since(started)
	verdict.DurationMs = float64(verdict.Duration.Microseconds()) / 1000
	verdict.Digest = digest(doc, raw)

	span.SetAttributes(attribute.String(otelhelper.DocumentDigestKey, verdict.Digest))

	if verdict.Valid {
		span.SetAttributes(attribute.String(otelhelper.StageKey, verdict.Stage))
		s.logger.InfoContext(ctx, "workflow accepted", "name", req.Name, "digest", verdict.Digest, "normalized", verdict.Normalized)
	} else {
		otelhelper.SetRejected(span, verdict.Stage, verdict.Kind, verdict.Path)
		s.logger.InfoContext(ctx, "workflow rejected", "name", req.Name, "digest", verdict.Digest,
			"stage", verdict.Stage, "kind", verdict.Kind, "path", verdict.Path)
	}

	s.metrics.Observe(verdict.Stage, verdict.Kind, verdict.Duration)
	s.publish(ctx, req, verdict)
	s.record(ctx, req, raw, verdict)

	return verdict, nil
}

func (s *Validation) run(ctx context.Context, raw []byte, req Request) (*Verdict, []byte, error) {
	doc := raw

	if req.Extract {
		candidate, err := extract.Candidate(string(raw))
		if err != nil {
			return &Verdict{Stage: StageExtract, Kind: KindExtraction, Message: err.Error()}, nil, nil
		}

		doc = candidate
	}

	doc, err := extract.CoerceAliases(doc)
	if err != nil {
		return &Verdict{Stage: StageDecode, Kind: KindDecode, Message: err.Error()}, nil, nil
	}

	if !req.SkipSchema {
		if err := schema.Validate(doc); err != nil {
			var schemaErr *schema.Error

			switch {
			case errors.As(err, &schemaErr):
				return &Verdict{Stage: StageSchema, Kind: KindSchema, Message: "document does not match the workflow schema", Details: schemaErr.Details}, doc, nil
			case errors.Is(err, schema.ErrSchemaViolation):
				return &Verdict{Stage: StageSchema, Kind: KindSchema, Message: err.Error()}, doc, nil
			default:
				return nil, nil, &ServiceError{Op: "schema", Code: "schema_unavailable", Err: err}
			}
		}
	}

	wf, err := models.Decode(doc)
	if err != nil {
		verdict := &Verdict{Stage: StageDecode, Kind: KindDecode, Message: err.Error()}

		var decodeErr *models.DecodeError
		if errors.As(err, &decodeErr) {
			verdict.Path = decodeErr.Path
		}

		return verdict, doc, nil
	}

	engine := s.lenient
	if req.StrictDates {
		engine = s.strict
	}

	normalized, err := engine.Check(ctx, wf)
	if err != nil {
		violation, ok := validation.AsViolation(err)
		if !ok {
			return nil, nil, &ServiceError{Op: "validate", Code: "engine_failure", Err: err}
		}

		return rejectedBy(violation), doc, nil
	}

	verdict := &Verdict{Valid: true, Stage: StageComplete}

	before, err := models.Encode(wf)
	if err != nil {
		return nil, nil, &ServiceError{Op: "encode", Code: "encode_failure", Err: err}
	}

	after, err := models.Encode(normalized)
	if err != nil {
		return nil, nil, &ServiceError{Op: "encode", Code: "encode_failure", Err: err}
	}

	verdict.Normalized = !bytes.Equal(before, after)

	if !req.CheckOnly {
		verdict.Workflow = normalized
	}

	if req.Preview > 0 {
		verdict.Schedule = s.preview(normalized, req.Preview)
	}

	return verdict, doc, nil
}

func (s *Validation) preview(wf *models.Workflow, n int) *SchedulePreview {
	t, ok := wf.Trigger()
	if !ok || t.Kind() != models.TriggerKindScheduled {
		return nil
	}

	spec, err := t.Schedule.CronSpec()
	if err != nil {
		return &SchedulePreview{Note: err.Error()}
	}

	runs, err := t.Schedule.NextRuns(s.now(), n)
	if err != nil {
		return &SchedulePreview{Cron: spec, Note: err.Error()}
	}

	return &SchedulePreview{Cron: spec, NextRuns: runs}
}

func (s *Validation) publish(ctx context.Context, req Request, verdict *Verdict) {
	if s.bus == nil {
		return
	}

	var event eventbus.Event

	if verdict.Valid {
		accepted := events.WorkflowAccepted{
			BaseEvent:  events.NewBaseEvent(events.WorkflowAcceptedEvent, verdict.Digest),
			Source:     req.Source,
			Normalized: verdict.Normalized,
			Duration:   verdict.Duration,
		}
		if verdict.Workflow != nil {
			accepted.Steps = countSteps(verdict.Workflow)
		}

		accepted.WorkerID = s.workerID
		event = accepted
	} else {
		rejected := events.WorkflowRejected{
			BaseEvent: events.NewBaseEvent(events.WorkflowRejectedEvent, verdict.Digest),
			Source:    req.Source,
			Stage:     verdict.Stage,
			Kind:      verdict.Kind,
			Reason:    verdict.Reason,
			Path:      verdict.Path,
			Message:   verdict.Message,
			Duration:  verdict.Duration,
		}
		rejected.WorkerID = s.workerID
		event = rejected
	}

	if err := s.bus.Publish(ctx, verdict.Digest, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish verdict event", "digest", verdict.Digest, "error", err)
	}
}

func (s *Validation) record(ctx context.Context, req Request, raw []byte, verdict *Verdict) {
	if s.sink == nil {
		return
	}

	record := persistence.Record{
		Time:       s.now().UTC(),
		Status:     persistence.StatusOK,
		Source:     req.Source,
		Name:       req.Name,
		Digest:     verdict.Digest,
		Stage:      verdict.Stage,
		DurationMs: verdict.DurationMs,
	}

	if !verdict.Valid {
		record.Status = persistence.StatusFail
		record.Kind = verdict.Kind
		record.Reason = verdict.Reason
		record.Path = verdict.Path
		record.Message = verdict.Message
		record.Preview = extract.Preview(string(raw), previewLength)
	}

	if err := s.sink.Write(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "failed to record verdict", "digest", verdict.Digest, "error", err)
	}
}

func countSteps(wf *models.Workflow) int {
	n := 0
	for range models.Walk(wf.Steps) {
		n++
	}

	return n
}

// digest identifies a candidate by its canonical JSON, or by its raw bytes when no JSON was found.
func digest(doc, raw []byte) string {
	input := raw
	if doc != nil {
		input = extract.Canonical(doc)
	}

	sum := sha256.Sum256(input)

	return hex.EncodeToString(sum[:8])
}
