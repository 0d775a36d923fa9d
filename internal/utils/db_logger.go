package utils

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// QuietGormLogger wraps a GORM logger and drops trace output for queries
// matching any of the given patterns. Used to keep the notification
// worker's poll query from flooding the log every tick.
type QuietGormLogger struct {
	logger.Interface
	ignoredQueryPatterns []string
}

// NewCustomGormLogger creates a logger ignoring queries that contain any of
// the given patterns
func NewCustomGormLogger(l logger.Interface, ignoredPatterns ...string) *QuietGormLogger {
	return &QuietGormLogger{
		Interface:            l,
		ignoredQueryPatterns: ignoredPatterns,
	}
}

// LogMode implements logger.Interface
func (l *QuietGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &QuietGormLogger{
		Interface:            l.Interface.LogMode(level),
		ignoredQueryPatterns: l.ignoredQueryPatterns,
	}
}

// Trace implements logger.Interface
func (l *QuietGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, _ := fc()
	for _, pattern := range l.ignoredQueryPatterns {
		if strings.Contains(sql, pattern) {
			return
		}
	}
	l.Interface.Trace(ctx, begin, fc, err)
}
