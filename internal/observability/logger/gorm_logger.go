package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig configures the GORM zap logger.
type GormLoggerConfig struct {
	// Logger is the base logger; the global logger is used when nil.
	Logger               *zap.Logger
	Level                gormlogger.LogLevel
	SlowThreshold        time.Duration
	IgnoreRecordNotFound bool
}

// DefaultGormLoggerConfig returns batch-friendly defaults. Statement logging is left
// to debug level since a bulk load issues one insert per dimension batch.
func DefaultGormLoggerConfig(level string) GormLoggerConfig {
	cfg := GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        500 * time.Millisecond,
		IgnoreRecordNotFound: true,
	}
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		cfg.Level = gormlogger.Info
	}
	return cfg
}

// GormLogger writes GORM messages and statements through zap. Every entry
// carries the run id and trace ids found on the statement context, so a
// failed insert can be matched to the file being loaded.
type GormLogger struct {
	base                 *zap.Logger
	level                gormlogger.LogLevel
	slowThreshold        time.Duration
	ignoreRecordNotFound bool
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		base:                 cfg.Logger,
		level:                cfg.Level,
		slowThreshold:        cfg.SlowThreshold,
		ignoreRecordNotFound: cfg.IgnoreRecordNotFound,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

// Trace logs failed and slow statements, and every statement at gorm Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var level zapcore.Level
	switch {
	case err != nil && l.level >= gormlogger.Error && !(errors.Is(err, gormlogger.ErrRecordNotFound) && l.ignoreRecordNotFound):
		level = zapcore.ErrorLevel
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		level = zapcore.WarnLevel
		err = nil
	case l.level >= gormlogger.Info:
		level = zapcore.DebugLevel
		err = nil
	default:
		return
	}

	log := l.logger(ctx)
	if ce := log.Check(level, "db.query"); ce != nil {
		sql, rows := fc()
		stmt := describeSQL(sql)
		fields := []zap.Field{
			zap.String("sql", strings.TrimSpace(sql)),
			zap.String("operation", stmt.operation),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		}
		if stmt.table != "" {
			fields = append(fields, zap.String("table", stmt.table))
		}
		if rows >= 0 {
			fields = append(fields, zap.Int64("rows_affected", rows))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		ce.Write(fields...)
	}
}

// ParamsFilter strips bound values; activity rows carry user names.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) message(ctx context.Context, threshold gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.level < threshold {
		return
	}
	if ce := l.logger(ctx).Check(level, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write()
	}
}

func (l *GormLogger) logger(ctx context.Context) *zap.Logger {
	base := l.base
	if base == nil {
		base = zap.L()
	}
	return WithContext(ctx, base).With(zap.String("component", "db"))
}

type statement struct {
	operation string
	table     string
}

// describeSQL finds the statement verb and the first table it touches.
func describeSQL(sql string) statement {
	stmt := statement{operation: "UNKNOWN"}
	tokens := strings.Fields(strings.TrimSpace(sql))
	for i, raw := range tokens {
		token := strings.ToUpper(strings.Trim(raw, "();"))
		switch token {
		case "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP":
			if stmt.operation == "UNKNOWN" {
				stmt.operation = token
			}
			if token == "UPDATE" && stmt.table == "" {
				stmt.table = tableName(tokens[i+1:])
			}
		case "FROM", "INTO", "TABLE":
			if stmt.table == "" {
				stmt.table = tableName(tokens[i+1:])
			}
		}
	}
	return stmt
}

func tableName(tokens []string) string {
	for _, token := range tokens {
		switch strings.ToUpper(token) {
		case "IF", "NOT", "EXISTS", "ONLY":
			continue
		}
		return strings.Trim(token, "\"`();,")
	}
	return ""
}

var _ gormlogger.Interface = (*GormLogger)(nil)
