package ulogger

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Logf(format string, args ...any)
}

type tHelper = interface {
	Helper()
}

// ErrorTestLogger forwards Errorf and Fatalf to the test log with the caller location and
// drops everything below error level.
type ErrorTestLogger struct {
	t        TestingT
	shutdown atomic.Bool // Prevents logging after test cleanup
}

func NewErrorTestLogger(t TestingT) *ErrorTestLogger {
	return &ErrorTestLogger{
		t: t,
	}
}

// Shutdown marks the logger as shutdown, preventing further access to testing.T
// This should be called before test cleanup to avoid race conditions
func (l *ErrorTestLogger) Shutdown() {
	l.shutdown.Store(true)
}

func (l *ErrorTestLogger) LogLevel() int {
	return 0
}

func (l *ErrorTestLogger) SetLogLevel(level string) {}

func (l *ErrorTestLogger) New(service string, options ...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Duplicate(options ...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Debugf(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Infof(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Warnf(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Errorf(format string, args ...interface{}) {
	l.log("ERR_LEVEL", format, args...)
}

func (l *ErrorTestLogger) Fatalf(format string, args ...interface{}) {
	l.log("FATAL_LEVEL", format, args...)
}

func (l *ErrorTestLogger) log(level, format string, args ...interface{}) {
	// Don't access testing.T if logger is shutdown (test is cleaning up)
	if l.shutdown.Load() {
		return
	}

	if h, ok := l.t.(tHelper); ok {
		h.Helper()
	}

	_, file, line, _ := runtime.Caller(2)

	l.t.Logf(fmt.Sprintf("%s:%d: %s %s", file, line, level, format), args...)
}
