package datastore

import (
	"context"
	"log/slog"
	"time"

	"github.com/wildwatch/wildwatch-go/internal/logging"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold defines the duration after which a query is considered slow.
const slowQueryThreshold = 1 * time.Second

// gormSlogLogger adapts the application's slog logger to gorm's logger interface.
type gormSlogLogger struct {
	level gormlogger.LogLevel
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return &gormSlogLogger{level: gormlogger.Warn}
}

func (l *gormSlogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormSlogLogger{level: level}
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log().InfoContext(ctx, msg, "data", data)
	}
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log().WarnContext(ctx, msg, "data", data)
	}
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log().ErrorContext(ctx, msg, "data", data)
	}
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log().ErrorContext(ctx, "query failed",
			"error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log().WarnContext(ctx, "slow query",
			"sql", sql, "rows", rows, "elapsed", elapsed, "threshold", slowQueryThreshold)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log().InfoContext(ctx, "query",
			"sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

func (l *gormSlogLogger) log() *slog.Logger {
	if lg := logging.ForService("datastore"); lg != nil {
		return lg
	}
	return slog.Default()
}
