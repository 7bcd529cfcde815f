// Package fxtlog is the structured logging facade of the fxtnode process.
// Only cmd/fxtnode logs through it; the core packages (point through node)
// do not log. It wraps logrus the way the reference
// service's infrastructure/logging package does, trimmed to what a
// single-process embedded control engine needs: a service-scoped logger,
// a per-run correlation ID, and leveled fields instead of free-text.
package fxtlog

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with a fixed "component" field.
type Logger struct {
	*logrus.Logger
	component string
	runID     string
}

// New builds a Logger for component, logging at level with the given format
// ("json" or "text"). An unparsable level falls back to Info.
func New(component, level, format string) *Logger {
	base := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if format == "text" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	base.SetOutput(os.Stdout)

	return &Logger{Logger: base, component: component, runID: uuid.NewString()}
}

// NewFromEnv builds a Logger using FXT_LOG_LEVEL / FXT_LOG_FORMAT, defaulting
// to info/json when unset.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("FXT_LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("FXT_LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// With returns a logrus.Entry scoped to this Logger's component and run ID,
// ready for further WithField calls by the caller.
func (l *Logger) With() *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		"run_id":    l.runID,
	})
}

// Named returns a child Logger sharing the same run ID but a different
// component field, for a sub-object (e.g. a specific Chassis or Card).
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component, runID: l.runID}
}
