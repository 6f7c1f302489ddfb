package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

// newTestDB opens a private in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedDish(t *testing.T, db *gorm.DB, name, country string, cat domain.Category) *domain.Dish {
	t.Helper()
	d := &domain.Dish{Name: name, Country: country, Region: "Asia", Category: cat, AuthorID: "author-1", AuthorName: "Author"}
	if err := CreateDish(context.Background(), db, d); err != nil {
		t.Fatalf("CreateDish(%s): %v", name, err)
	}
	// keep created_at strictly increasing for ordering assertions
	time.Sleep(2 * time.Millisecond)
	return d
}
