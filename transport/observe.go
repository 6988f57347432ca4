package transport

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/kbukum/routerkit/transport"

// telemetry holds the OpenTelemetry instruments for the transport. Only
// the otel API is used: without an SDK installed by the host application
// every call is a no-op.
type telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry() *telemetry {
	meter := otel.Meter(scopeName)
	requests, _ := meter.Int64Counter("routerkit.client.requests",
		metric.WithDescription("Completed gateway calls, by status and error kind."))
	duration, _ := meter.Float64Histogram("routerkit.client.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Wall time per gateway call, including retries."))
	return &telemetry{
		tracer:   otel.Tracer(scopeName),
		requests: requests,
		duration: duration,
	}
}

func (t *telemetry) start(ctx context.Context, name, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
}

func (t *telemetry) end(ctx context.Context, span trace.Span, req Request, status, attempts int, err error, start time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
		attribute.Int("http.response.status_code", status),
		attribute.Int("routerkit.attempts", attempts),
	}
	if err != nil {
		var terr *Error
		if errors.As(err, &terr) {
			attrs = append(attrs, attribute.String("routerkit.error_kind", terr.Kind.String()))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attrs...)

	t.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
}
