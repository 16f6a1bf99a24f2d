package sqlite

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// Open creates a GORM *DB backed by a SQLite file.
// Foreign keys are enabled so detail rows cascade when history is purged.
func Open(path string) (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?_foreign_keys=on", path))
}

// OpenMemory creates a private named in-memory SQLite DB. The name is
// unique per call so parallel tests never share state; cache=shared keeps
// the database alive across the GORM connection pool.
func OpenMemory() (*gorm.DB, error) {
	n := memSeq.Add(1)
	return open(fmt.Sprintf("file:chronicle_mem_%d?mode=memory&cache=shared&_foreign_keys=on", n))
}

func open(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
