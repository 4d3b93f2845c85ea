package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

// gormLogger forwards slow statements and driver errors to the service
// logger so they carry the request's trace fields. Record-not-found is
// expected control flow and never logged.
type gormLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(logg *logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &gormLogger{logg: logg, slowThreshold: slowThreshold, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Info {
		l.logg.Debug(ctx, "gorm: "+msg)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Warn {
		l.logg.Warn(ctx, "gorm: "+msg)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Error {
		l.logg.Error(ctx, "gorm: "+msg, nil)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logg.Error(l.traceFields(ctx, sql, rows, elapsed), "db.query_failed", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logg.Warn(l.traceFields(ctx, sql, rows, elapsed), "db.slow_query")
	}
}

func (l *gormLogger) traceFields(ctx context.Context, sql string, rows int64, elapsed time.Duration) context.Context {
	return l.logg.WithFields(ctx, map[string]any{
		"sql":        sql,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}
