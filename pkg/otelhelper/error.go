package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorKindKey classifies a failed editor operation, e.g. "validation" or "not_found".
const ErrorKindKey = "botflow.error.kind"

// SetError marks span as failed. attrs are attached to the recorded exception event so the
// failing node or input can be found from the trace. A nil err is ignored.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetErrorKind records err like SetError and tags the span with its kind.
func SetErrorKind(span trace.Span, err error, kind string, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.SetAttributes(attribute.String(ErrorKindKey, kind))
	SetError(span, err, attrs...)
}
