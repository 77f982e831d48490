// Package tracing wraps an operation in an OpenTelemetry span together with the gocore stat,
// prometheus metrics and log lines that usually go with it.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Options func(s *TraceOptions)

type TraceOptions struct {
	ParentStat *gocore.Stat
	Histogram  prometheus.Histogram
	Counter    prometheus.Counter
	Tags       []attribute.KeyValue
	Logger     ulogger.Logger
	LogMessage string
	LogArgs    []interface{}
	LogDebug   bool
}

func WithParentStat(stat *gocore.Stat) Options {
	return func(s *TraceOptions) {
		s.ParentStat = stat
	}
}

// WithHistogram sets the histogram observed, in seconds, when the span ends.
func WithHistogram(histogram prometheus.Histogram) Options {
	return func(s *TraceOptions) {
		s.Histogram = histogram
	}
}

// WithCounter sets the counter incremented when the span ends.
func WithCounter(counter prometheus.Counter) Options {
	return func(s *TraceOptions) {
		s.Counter = counter
	}
}

func WithTag(key, value string) Options {
	return func(s *TraceOptions) {
		s.Tags = append(s.Tags, attribute.String(key, value))
	}
}

// WithLogMessage logs the formatted message at INFO when the span starts and again, with the
// elapsed time, when it ends.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
		s.LogDebug = false
	}
}

// WithDebugLogMessage is WithLogMessage at DEBUG.
func WithDebugLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
		s.LogDebug = true
	}
}

type UTracer struct {
	name string
}

// Tracer returns a tracer for the named component. Spans go to whatever provider is installed
// globally when Start is called.
func Tracer(name string) *UTracer {
	return &UTracer{name: name}
}

// Start begins a span called spanName and returns the context carrying it, the span and a
// function ending it. Passing a non-nil error to the end function marks the span as failed.
func (u *UTracer) Start(ctx context.Context, spanName string, setOptions ...Options) (context.Context, trace.Span, func(...error)) {
	options := &TraceOptions{}
	for _, opt := range setOptions {
		opt(options)
	}

	start := gocore.CurrentTime()

	ctx, span := otel.Tracer(u.name).Start(ctx, spanName, trace.WithAttributes(options.Tags...))

	options.log(options.LogMessage, options.LogArgs...)

	return ctx, span, func(errs ...error) {
		var err error

		for _, e := range errs {
			if e != nil {
				err = e
				break
			}
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()

		if options.ParentStat != nil {
			options.ParentStat.NewStat(spanName).AddTime(start)
		}

		if options.Histogram != nil {
			options.Histogram.Observe(time.Since(start).Seconds())
		}

		if options.Counter != nil {
			options.Counter.Inc()
		}

		if options.Logger != nil && options.LogMessage != "" {
			done := fmt.Sprintf(" DONE in %s", time.Since(start))
			if err != nil {
				done += fmt.Sprintf(" with error: %v", err)
			}

			options.log(options.LogMessage+done, options.LogArgs...)
		}
	}
}

func (o *TraceOptions) log(format string, args ...interface{}) {
	if o.Logger == nil || format == "" {
		return
	}

	if o.LogDebug {
		o.Logger.Debugf(format, args...)
		return
	}

	o.Logger.Infof(format, args...)
}
