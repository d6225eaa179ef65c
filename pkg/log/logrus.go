package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter implements Logger using logrus.
type LogrusAdapter struct {
	logger *logrus.Logger
}

// NewLogrusAdapter creates an adapter writing logrus text lines to stderr.
func NewLogrusAdapter(level Level) *LogrusAdapter {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrusLevel(level))
	return &LogrusAdapter{logger: l}
}

// NewLogrusAdapterWithLogger wraps an existing logrus.Logger.
func NewLogrusAdapterWithLogger(logger *logrus.Logger) *LogrusAdapter {
	return &LogrusAdapter{logger: logger}
}

func (a *LogrusAdapter) Debug(msg string, fields ...Field) { a.entry(fields).Debug(msg) }
func (a *LogrusAdapter) Info(msg string, fields ...Field)  { a.entry(fields).Info(msg) }
func (a *LogrusAdapter) Warn(msg string, fields ...Field)  { a.entry(fields).Warn(msg) }
func (a *LogrusAdapter) Error(msg string, fields ...Field) { a.entry(fields).Error(msg) }

func (a *LogrusAdapter) entry(fields []Field) *logrus.Entry {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return a.logger.WithFields(lf)
}

func logrusLevel(l Level) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New returns the backend named by the log_backend setting.
func New(backend string, level Level) Logger {
	if backend == "logrus" {
		return NewLogrusAdapter(level)
	}
	return NewZerologAdapter(level)
}
