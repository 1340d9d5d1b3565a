package sqlite

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pragmas turn on foreign keys (needed for cascading deletes) and make
// writers wait instead of failing with "database is locked".
const pragmas = "_foreign_keys=1&_busy_timeout=5000"

// DSN appends the connection pragmas to a file path or URI.
func DSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

// Open creates a GORM *DB backed by SQLite.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}
