// Package observability provides distributed tracing for the meeting
// processing pipeline.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for pipeline operations.
const TracerName = "pipeline"

// Span attribute keys
const (
	AttrMeetingFile = "meeting_file"
	AttrRunID       = "run_id"
	AttrStage       = "stage"
	AttrSegments    = "segments"
	AttrSentences   = "sentences"
	AttrActions     = "actions"
	AttrSpeakers    = "speakers"
	AttrCapability  = "capability"
	AttrDurationMs  = "duration_ms"
	AttrErrorType   = "error_type"
)

// Span names
const (
	SpanProcessMeeting = "pipeline.process_meeting"
	SpanCapabilityCall = "pipeline.capability_call"
)

// Tracer provides distributed tracing for meeting pipeline runs.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new pipeline tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartMeetingSpan starts a root span for processing one meeting.
func (t *Tracer) StartMeetingSpan(ctx context.Context, meetingFile, runID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, SpanProcessMeeting,
		trace.WithAttributes(
			attribute.String(AttrMeetingFile, meetingFile),
		),
	)
	if runID != "" {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
	return ctx, span
}

// StartStageSpan starts a span for a pipeline stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("pipeline.stage.%s", stage),
		trace.WithAttributes(
			attribute.String(AttrStage, stage),
		),
	)
}

// StartCapabilitySpan starts a span for one model capability call.
func (t *Tracer) StartCapabilitySpan(ctx context.Context, capability string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanCapabilityCall,
		trace.WithAttributes(
			attribute.String(AttrCapability, capability),
		),
	)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetCounts sets stage output size attributes on the span.
func (h *SpanHelper) SetCounts(segments, sentences, actions int) {
	h.span.SetAttributes(
		attribute.Int(AttrSegments, segments),
		attribute.Int(AttrSentences, sentences),
		attribute.Int(AttrActions, actions),
	)
}

// SetSpeakers sets the speaker count attribute.
func (h *SpanHelper) SetSpeakers(speakers int) {
	h.span.SetAttributes(attribute.Int(AttrSpeakers, speakers))
}

// SetDuration sets the duration attribute.
func (h *SpanHelper) SetDuration(durationMs int64) {
	h.span.SetAttributes(attribute.Int64(AttrDurationMs, durationMs))
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, errorType string) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(attribute.String(AttrErrorType, errorType))
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func (h *SpanHelper) AddEvent(name string, attrs ...attribute.KeyValue) {
	h.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the context.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasSpanID() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

// InjectTraceContext extracts trace context for propagation to queue jobs.
func InjectTraceContext(ctx context.Context) map[string]string {
	headers := make(map[string]string)
	if traceID := GetTraceID(ctx); traceID != "" {
		headers["trace_id"] = traceID
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		headers["span_id"] = spanID
	}
	return headers
}
