// Package testutil opens throwaway databases and seeds rows for repo,
// aggregate and service tests.
package testutil

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/pawclinic-backend/internal/data/db"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

// Logger is shared by every test in the binary. It writes through zap's
// development config, so failures show readable output.
var Logger = func() func(testing.TB) *logger.Logger {
	var (
		once sync.Once
		log  *logger.Logger
		err  error
	)
	return func(tb testing.TB) *logger.Logger {
		tb.Helper()
		once.Do(func() { log, err = logger.New("test") })
		if err != nil {
			tb.Fatalf("logger: %v", err)
		}
		return log
	}
}()

// DB opens a private in-memory sqlite database with every table migrated.
// It has a single connection: while a transaction is open, code under test
// must use the tx it was given or it will block.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := appdb.GormConfig()
	cfg.Logger = gormlogger.Discard
	dsn := "file:pawclinic_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	raw, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite pool: %v", err)
	}
	raw.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = raw.Close() })

	if err := appdb.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Tx begins a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin: %v", tx.Error)
	}
	tb.Cleanup(func() { tx.Rollback() })
	return tx
}
