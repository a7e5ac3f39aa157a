package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialql/internal/config"
	"socialql/internal/models"
	"socialql/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger sends GORM output to observability.Logger, read on every call so
// a logger swapped in after startup is picked up. Query records carry the
// collection the repository put on the context, and slow queries are counted
// per collection.
type gormLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(level logger.LogLevel, slowThreshold time.Duration) *gormLogger {
	return &gormLogger{level: level, slowThreshold: slowThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *gormLogger) emit(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, data []interface{}) {
	if l.level < threshold {
		return
	}
	observability.Logger.Log(ctx, level, fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Error, slog.LevelError, msg, data)
}

// Trace logs failed and slow queries, and every query at Info level. Missing
// rows and duplicate usernames are outcomes the repositories handle, not failures.
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	expected := errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	if slow {
		collection := observability.CollectionFrom(ctx)
		if collection == "" {
			collection = "unknown"
		}
		observability.SlowQueries.WithLabelValues(collection).Inc()
	}

	switch {
	case err != nil && !expected && l.level >= logger.Error:
		sql, rows := fc()
		observability.Logger.ErrorContext(ctx, "sql query failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case slow && l.level >= logger.Warn:
		sql, rows := fc()
		observability.Logger.WarnContext(ctx, "slow sql query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.Duration("threshold", l.slowThreshold),
		)
	case l.level >= logger.Info:
		sql, rows := fc()
		observability.Logger.InfoContext(ctx, "sql query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// OpenSQL opens the SQL store for driver (postgres or sqlite) at dsn.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger.Warn, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// In-memory SQLite databases are per connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// MigrateSQL creates or updates the users and posts tables.
func MigrateSQL(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Post{})
}
