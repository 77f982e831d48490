package ulogger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type ZLoggerWrapper struct {
	zerolog.Logger
	service string
	w       io.Writer
	json    bool
}

func NewZeroLogger(service string, options ...Option) *ZLoggerWrapper {
	if service == "" {
		service = "utxochain"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	var z *ZLoggerWrapper
	if !opts.json {
		z = prettyZeroLogger(opts.writer, service)
	} else {
		z = &ZLoggerWrapper{
			zerolog.New(opts.writer).With().
				Str("service", service).
				CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1).
				Timestamp().
				Logger(),
			service,
			opts.writer,
			true,
		}
	}

	z.SetLogLevel(opts.logLevel)

	return z
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

func prettyZeroLogger(writer io.Writer, service string) *ZLoggerWrapper {
	noColor := !isTerminal(writer)
	output := zerolog.ConsoleWriter{
		Out:        writer,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}

	output.FormatTimestamp = func(i interface{}) string {
		s, _ := i.(string)
		parse, _ := time.Parse(time.RFC3339, s)

		return parse.Format("15:04:05")
	}

	output.FormatLevel = func(i interface{}) string {
		l := strings.ToUpper(fmt.Sprintf("%-6s", i))

		// colorize the levels in same way as gocore
		switch i {
		case "debug":
			l = colorize(l, colorBlue, noColor)
		case "info":
			l = colorize(l, colorGreen, noColor)
		case "warn":
			l = colorize(l, colorYellow, noColor)
		case "error", "fatal", "panic":
			l = colorize(l, colorRed, noColor)
		default:
			l = colorize(l, colorWhite, noColor)
		}

		return fmt.Sprintf("| %s|", l)
	}

	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("| %-6s| %s", service, i)
	}

	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	output.FormatFieldValue = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("%s", i))
	}

	output.FormatCaller = func(i interface{}) string {
		c, _ := i.(string)
		if len(c) == 0 {
			return c
		}

		if cwd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(cwd, c); err == nil {
				c = rel
			}
		}

		split := strings.Split(c, "/")
		currentElement := len(split) - 1
		c = split[currentElement]
		currentElement--

		for currentElement >= 0 && len(c)+len(split[currentElement])+1 <= 32 {
			c = split[currentElement] + "/" + c
			currentElement--
		}

		return colorize(fmt.Sprintf("%-32s", c), colorBold, noColor)
	}

	return &ZLoggerWrapper{
		zerolog.New(output).With().
			CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1).
			Timestamp().
			Logger(),
		service,
		writer,
		false,
	}
}

func (z *ZLoggerWrapper) New(service string, options ...Option) Logger {
	opts := &Options{
		writer:     z.w,
		loggerType: "zerolog",
		logLevel:   z.Logger.GetLevel().String(),
		json:       z.json,
	}

	for _, o := range options {
		o(opts)
	}

	// make sure we set the same options as the parent
	return NewZeroLogger(service,
		WithWriter(opts.writer),
		WithLoggerType(opts.loggerType),
		WithLevel(opts.logLevel),
		WithJSON(opts.json),
	)
}

func (z *ZLoggerWrapper) Duplicate(options ...Option) Logger {
	opts := &Options{
		writer:   z.w,
		logLevel: z.Logger.GetLevel().String(),
		json:     z.json,
	}

	for _, o := range options {
		o(opts)
	}

	if opts.writer != z.w || opts.json != z.json {
		return NewZeroLogger(z.service, WithWriter(opts.writer), WithLevel(opts.logLevel), WithJSON(opts.json))
	}

	dup := *z
	dup.SetLogLevel(opts.logLevel)

	return &dup
}

func (z *ZLoggerWrapper) SetLogLevel(logLevel string) {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		z.Logger = z.Logger.Level(zerolog.DebugLevel)
	case "INFO":
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	case "WARN":
		z.Logger = z.Logger.Level(zerolog.WarnLevel)
	case "ERROR":
		z.Logger = z.Logger.Level(zerolog.ErrorLevel)
	case "FATAL":
		z.Logger = z.Logger.Level(zerolog.FatalLevel)
	case "PANIC":
		z.Logger = z.Logger.Level(zerolog.PanicLevel)
	default:
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	}
}

func (z *ZLoggerWrapper) LogLevel() int {
	switch z.Logger.GetLevel() {
	case zerolog.DebugLevel:
		return DEBUG
	case zerolog.InfoLevel:
		return INFO
	case zerolog.WarnLevel:
		return WARN
	case zerolog.ErrorLevel:
		return ERROR
	case zerolog.FatalLevel:
		return FATAL
	default:
		return INFO
	}
}

func (z *ZLoggerWrapper) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Fatalf(format string, args ...interface{}) {
	z.Logger.Fatal().Msgf(format, args...)
}
