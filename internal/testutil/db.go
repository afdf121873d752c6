// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// Models lists every persisted type in migration order.
var Models = []any{
	&domain.Identity{},
	&domain.Product{},
	&domain.Transaction{},
	&domain.Review{},
	&domain.Sequence{},
	&domain.Idempotency{},
}

// NewDB opens a private in-memory SQLite database with foreign keys on.
// With no migrate arguments the full schema is created; pass models to
// migrate a subset, or a single nil to skip migrations.
func NewDB(t testing.TB, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// One connection avoids shared-cache table locks between goroutines.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch {
	case len(migrate) == 1 && migrate[0] == nil:
		return db
	case len(migrate) == 0:
		migrate = Models
	}
	if err := db.AutoMigrate(migrate...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}
