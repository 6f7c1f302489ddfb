package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestCache() *cache.Cache[any] {
	return cache.New[any]("test", cache.WithDefaultTTL(time.Minute))
}

func ptr(s string) *string { return &s }

func dishInput(name, country, region, category string) DishInput {
	return DishInput{Name: ptr(name), Country: ptr(country), Region: ptr(region), Category: ptr(category)}
}

func mustCreate(t *testing.T, s *DishService, userID string, in DishInput) *domain.Dish {
	t.Helper()
	d, err := s.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("Create(%v): %v", *in.Name, err)
	}
	time.Sleep(2 * time.Millisecond)
	return d
}
