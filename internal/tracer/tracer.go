// Package tracer wraps statement execution in tracing spans. OpenTelemetry is
// supported out of the box; other backends implement Tracer.
package tracer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/coregx/qbuild"

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is the part of a tracing span the runner writes to.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// NoopTracer is the default tracer. It creates spans that record nothing.
type NoopTracer struct{}

// StartSpan returns ctx unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan records nothing.
type NoopSpan struct{}

func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}
func (n *NoopSpan) RecordError(_ error)                   {}
func (n *NoopSpan) SetStatus(_ codes.Code, _ string)      {}
func (n *NoopSpan) End()                                  {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer wraps tracer, which must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// FromProvider returns an OtelTracer named after this module. A nil provider
// means the global one.
func FromProvider(tp trace.TracerProvider) *OtelTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return NewOtelTracer(tp.Tracer(InstrumentationName))
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &OtelSpan{span: span}
}

// OtelSpan adapts an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes forwards to the wrapped span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError forwards to the wrapped span.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus forwards to the wrapped span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End forwards to the wrapped span.
func (s *OtelSpan) End() {
	s.span.End()
}

// QueryMetadata describes one executed statement. Binding values are never
// recorded, only their number.
type QueryMetadata struct {
	System    string
	SQL       string
	Bindings  int
	Duration  time.Duration
	Rows      int64
	Operation string
	Table     string
	Err       error
}

// Annotate writes meta to span using the OpenTelemetry database attribute
// names and sets the span status from meta.Err.
func Annotate(span Span, meta *QueryMetadata) {
	op := meta.Operation
	if op == "" {
		op = Operation(meta.SQL)
	}
	table := meta.Table
	if table == "" {
		table = PrimaryTable(meta.SQL)
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", meta.System),
		attribute.String("db.statement", meta.SQL),
		attribute.String("db.operation", op),
		attribute.Int("db.bindings", meta.Bindings),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
	}
	if table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", table))
	}
	if meta.Rows > 0 {
		attrs = append(attrs, attribute.Int64("db.rows", meta.Rows))
	}
	span.SetAttributes(attrs...)

	if meta.Err != nil {
		span.RecordError(meta.Err)
		span.SetStatus(codes.Error, meta.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Operation returns the leading SQL keyword (SELECT, INSERT, UPDATE,
// DELETE) of sql, or UNKNOWN. A WITH prefix counts as SELECT.
func Operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	switch kw := strings.ToUpper(fields[0]); kw {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return kw
	case "WITH":
		return "SELECT"
	}
	return "UNKNOWN"
}

var fromTable = regexp.MustCompile("(?i)\\bFROM\\s+((?:`[^`]+`\\.)?`[^`]+`|[A-Za-z_][A-Za-z0-9_.]*)")

// PrimaryTable returns the first table named after FROM, unquoted, or "".
func PrimaryTable(sql string) string {
	m := fromTable.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "`", "")
}

// SpanName is the span name used for a statement: "<operation> <table>",
// or just the operation when no table is known.
func SpanName(sql string) string {
	op := Operation(sql)
	if table := PrimaryTable(sql); table != "" {
		return op + " " + table
	}
	return op
}
