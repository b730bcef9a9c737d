package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// SetRejected marks a span whose candidate was judged invalid. The span status stays
// unset because a rejection is a normal outcome.
func SetRejected(span trace.Span, stage, kind, path string) {
	span.SetAttributes(
		attribute.String(StageKey, stage),
		attribute.String(ViolationKindKey, kind),
		attribute.String(ViolationPathKey, path),
	)
	span.AddEvent("workflow_rejected")
}
