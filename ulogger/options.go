package ulogger

import (
	"io"
	"os"
)

type Options struct {
	logLevel   string
	loggerType string
	writer     io.Writer
	json       bool
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		logLevel:   "INFO",
		loggerType: "zerolog",
		writer:     os.Stdout,
	}
}

func WithLevel(level string) Option {
	return func(o *Options) {
		o.logLevel = level
	}
}

func WithLoggerType(loggerType string) Option {
	return func(o *Options) {
		o.loggerType = loggerType
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

// WithJSON switches the zerolog logger from the pretty console writer to plain JSON lines.
func WithJSON(enabled bool) Option {
	return func(o *Options) {
		o.json = enabled
	}
}
