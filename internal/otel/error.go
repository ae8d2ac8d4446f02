package otel

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// RecordError marks span as failed. The status carries the client facing
// message while the event keeps the full wrapped chain.
func RecordError(err error, span trace.Span) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, inErrors.Message(err))
}
