package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once    sync.Once
	initErr error
	tp      *sdktrace.TracerProvider
	mu      sync.Mutex
)

// InitTracer installs a global tracer provider exporting spans over OTLP/HTTP to
// tracing_collectorURL. Only the first call does anything. Until it is called, spans started
// with Tracer go to otel's no-op provider.
func InitTracer(tSettings *settings.Settings) error {
	once.Do(func() {
		if tSettings.Tracing.CollectorURL == nil {
			initErr = errors.NewConfigurationError("tracing_collectorURL is not set")
			return
		}

		var exporter *otlptrace.Exporter

		exporter, initErr = otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpointURL(tSettings.Tracing.CollectorURL.String()),
		)
		if initErr != nil {
			initErr = errors.NewProcessingError("failed to create OTLP exporter", initErr)
			return
		}

		var res *resource.Resource

		res, initErr = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceNameKey.String(tSettings.ClientName),
				semconv.ServiceVersionKey.String(tSettings.Version),
				attribute.String("commit", tSettings.Commit),
			),
		)
		if initErr != nil {
			initErr = errors.NewProcessingError("failed to create resource", initErr)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(tSettings.Tracing.SampleRate)),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	})

	return initErr
}

// ShutdownTracer flushes and stops the provider installed by InitTracer. Calling it without
// one is a no-op.
func ShutdownTracer(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if tp == nil {
		return nil
	}

	if err := tp.ForceFlush(ctx); err != nil {
		return errors.NewProcessingError("failed to flush spans", err)
	}

	if err := tp.Shutdown(ctx); err != nil {
		return errors.NewProcessingError("failed to shutdown tracer", err)
	}

	tp = nil

	return nil
}
