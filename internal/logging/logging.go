// Package logging configures logrus for the application and bridges gorm's
// SQL logger onto it.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"ibis-route-manager/config"
)

// New builds a logger writing to stderr and, when a file is configured, to a
// rotating log file. Stdout is left to command output.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	log.SetOutput(out)

	return log, nil
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Gorm returns a gorm logger writing through log. SQL statements are only
// traced at debug level.
func Gorm(log *logrus.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(gormWriter{log: log}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// gormWriter maps gorm's printf-style output onto logrus levels. gorm marks
// its messages with [info], [warn] or [error]; traces of failed or slow
// statements carry the error or slow-query note as their second argument.
type gormWriter struct {
	log *logrus.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	level := logrus.DebugLevel
	switch {
	case strings.Contains(format, "[error]"):
		level = logrus.ErrorLevel
	case strings.Contains(format, "[warn]"):
		level = logrus.WarnLevel
	case strings.Contains(format, "[info]"):
		level = logrus.InfoLevel
	case strings.HasPrefix(format, "%s %s"):
		level = logrus.WarnLevel
		if len(args) > 1 {
			if _, ok := args[1].(error); ok {
				level = logrus.ErrorLevel
			}
		}
	}
	w.log.Logf(level, format, args...)
}
