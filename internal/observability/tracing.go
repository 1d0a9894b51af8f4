package observability

import (
	"context"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"docsdiff/internal/common"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

const instrumentationName = "docsdiff"

// ShutdownFunc flushes pending spans and releases the exporter
type ShutdownFunc func(ctx context.Context) error

// SetupTracing installs a global tracer provider that appends finished
// spans as JSON to cfg.File. With no file configured the global no-op
// provider stays in place and the returned ShutdownFunc does nothing.
func SetupTracing(cfg models.Tracing) (ShutdownFunc, error) {
	if cfg.File == "" {
		return func(context.Context) error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), common.DirPermissionNormal); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create trace directory").
			WithContext("path", cfg.File)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, common.FilePermissionNormal)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to open trace file").
			WithContext("path", cfg.File)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create span exporter")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", instrumentationName),
		)),
	)
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		otel.SetTracerProvider(previous)
		err := provider.Shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// Tracer returns the docsdiff tracer of the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span with string attributes given as key/value pairs
func StartSpan(ctx context.Context, name string, kv ...string) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
