package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres SQLSTATEs raised by row-lock contention on ledger rows
const (
	sqlStateSerialization = "40001"
	sqlStateDeadlock      = "40P01"
	sqlStateLockTimeout   = "55P03"
)

// GormLogger routes GORM output to zap. Statements carry the request,
// actor and branch of the unit that issued them.
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow; 0 disables it
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// NewGormLogger creates a GORM logger named "gorm" under zapLogger
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		logLevel:      level,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...), correlationFields(ctx)...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...), correlationFields(ctx)...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...), correlationFields(ctx)...)
	}
}

// Trace implements gormlogger.Interface.
// Missing rows are answered as NOT_FOUND upstream and never logged here.
// Lock contention is retried by the transaction scope and logs at warn.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold != 0 && elapsed > l.slowThreshold

	var logFn func(string, ...zap.Field)
	msg := "SQL query"
	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		if state := lockContention(err); state != "" {
			logFn, msg = l.logger.Warn, "SQL lock contention"
		} else {
			logFn, msg = l.logger.Error, "SQL Error"
		}
	case slow && l.logLevel >= gormlogger.Warn:
		logFn, msg = l.logger.Warn, fmt.Sprintf("SLOW SQL >= %v", l.slowThreshold)
	case err == nil && l.logLevel >= gormlogger.Info:
		logFn = l.logger.Debug
	default:
		return
	}

	sql, rows := fc()
	fields := append(correlationFields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
		if state := lockContention(err); state != "" {
			fields = append(fields, zap.String("sqlstate", state))
		}
	}
	logFn(msg, fields...)
}

// lockContention returns the SQLSTATE of a lock conflict, or "" for any other error
func lockContention(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	switch pgErr.Code {
	case sqlStateSerialization, sqlStateDeadlock, sqlStateLockTimeout:
		return pgErr.Code
	}
	return ""
}

func correlationFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetActorID(ctx); id != "" {
		fields = append(fields, zap.String("actor_id", id))
	}
	if id := GetBranchID(ctx); id != "" {
		fields = append(fields, zap.String("branch_id", id))
	}
	return fields
}

// MapGormLogLevel maps the application log level to a GORM level.
// Statements are traced at debug, so "info" keeps them silent below warn.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
