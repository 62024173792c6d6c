// Package logging provides the default Logger implementation used when no
// logger is supplied to the query core: a leveled stdout/stderr writer with
// timestamped, prefixed lines.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/nlweb/query-core/pkg/schemas"
)

// DefaultLogger implements schemas.Logger with stdout/stderr printing.
type DefaultLogger struct {
	level schemas.LogLevel
}

// NewDefaultLogger creates a DefaultLogger at the given level.
func NewDefaultLogger(level schemas.LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level}
}

func (l *DefaultLogger) formatMessage(level schemas.LogLevel, msg string, err error) string {
	timestamp := time.Now().Format(time.RFC3339)
	base := fmt.Sprintf("[NLWEB-%s] %s: %s", timestamp, level, msg)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", base, err)
	}
	return base
}

func (l *DefaultLogger) Debug(msg string) {
	if l.level == schemas.LogLevelDebug {
		fmt.Fprintln(os.Stdout, l.formatMessage(schemas.LogLevelDebug, msg, nil))
	}
}

func (l *DefaultLogger) Info(msg string) {
	if l.level == schemas.LogLevelDebug || l.level == schemas.LogLevelInfo {
		fmt.Fprintln(os.Stdout, l.formatMessage(schemas.LogLevelInfo, msg, nil))
	}
}

func (l *DefaultLogger) Warn(msg string) {
	if l.level == schemas.LogLevelDebug || l.level == schemas.LogLevelInfo || l.level == schemas.LogLevelWarn {
		fmt.Fprintln(os.Stdout, l.formatMessage(schemas.LogLevelWarn, msg, nil))
	}
}

func (l *DefaultLogger) Error(err error) {
	fmt.Fprintln(os.Stderr, l.formatMessage(schemas.LogLevelError, "", err))
}

// SetLevel updates the logger's minimum level.
func (l *DefaultLogger) SetLevel(level schemas.LogLevel) {
	l.level = level
}
