package sqlitedb

import (
	"testing"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates an in-memory sqlite DB with the contracts and notices tables.
// A single connection keeps every statement on the same in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&contract.Contract{}, &notice.Notice{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
