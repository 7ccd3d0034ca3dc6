package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// SlogLogger routes GORM's query log into slog. Record-not-found is an
// expected outcome for lookups and is never logged as an error.
type SlogLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a SlogLogger that reports errors and slow queries.
func NewGormLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{log: l, level: logger.Warn, slow: slowQueryThreshold}
}

func (l *SlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *SlogLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l *SlogLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l *SlogLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l *SlogLogger) printf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args []interface{}) {
	if l.level >= threshold {
		l.log.Log(ctx, level, fmt.Sprintf(msg, args...))
	}
}

func (l *SlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		level slog.Level
		msg   string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		level, msg = slog.LevelError, "query failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow query"
	case l.level >= logger.Info:
		level, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.log.LogAttrs(ctx, level, msg, attrs...)
}
