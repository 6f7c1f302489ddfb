package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&Dish{}, &Like{}, &User{}, &Recipe{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Dish{}).TableName():        "dishes",
		(Like{}).TableName():        "likes",
		(User{}).TableName():        "users",
		(Recipe{}).TableName():      "recipes",
		(Idempotency{}).TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestCategoryAndRegionValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	if Category("snack").Valid() || Category("").Valid() {
		t.Fatalf("unknown category accepted")
	}
	if !Region("Middle East").Valid() || Region("Atlantis").Valid() {
		t.Fatalf("region validation unexpected")
	}
	if CategoryStapleFood != "main_food" {
		t.Fatalf("staple food wire value changed")
	}
}

func TestMigrations_IndexesConstraintsAndCascade(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	for _, idx := range []struct {
		model any
		name  string
	}{
		{&Dish{}, "ux_dish_country_name"},
		{&Dish{}, "idx_dish_country_cat"},
		{&Dish{}, "idx_dish_author"},
		{&Like{}, "ux_like_user_dish"},
		{&Recipe{}, "idx_user_recipes"},
		{&Idempotency{}, "ux_user_scope_key"},
	} {
		if !m.HasIndex(idx.model, idx.name) {
			t.Fatalf("expected index %s on %T", idx.name, idx.model)
		}
	}

	now := time.Now().UTC()
	d := &Dish{ID: "d1", Name: "寿司", Country: "Japan", Region: "Asia", Category: CategoryMainDish, AuthorID: "u1", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("insert dish: %v", err)
	}

	dup := &Dish{ID: "d2", Name: "寿司", Country: "Japan", Region: "Asia", Category: CategoryMainDish, AuthorID: "u2"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (country, name)")
	}

	bad := &Dish{ID: "d3", Name: "x", Country: "Japan", Region: "Asia", Category: "snack", AuthorID: "u1"}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected category check violation")
	}

	if err := db.Model(&Dish{}).Where("id = ?", "d1").Update("likes_count", -1).Error; err == nil {
		t.Fatalf("expected likes_count check violation")
	}

	lk := &Like{ID: "l1", UserID: "u2", DishID: "d1", CreatedAt: now}
	if err := db.Create(lk).Error; err != nil {
		t.Fatalf("insert like: %v", err)
	}
	if err := db.Create(&Like{ID: "l2", UserID: "u2", DishID: "d1"}).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, dish_id)")
	}

	if err := db.Delete(&Dish{}, "id = ?", "d1").Error; err != nil {
		t.Fatalf("delete dish: %v", err)
	}
	var cnt int64
	if err := db.Model(&Like{}).Where("dish_id = ?", "d1").Count(&cnt).Error; err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected likes to cascade-delete with dish, got %d", cnt)
	}
}

func TestIdempotency_UniquePerUserScopeKey(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()
	rec := &Idempotency{ID: "i1", UserID: "u1", Scope: "dishes", Key: "k1", ResourceID: "d1", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Idempotency
	if err := db.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.ResourceID != "d1" || got.Scope != "dishes" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected row: %+v", got)
	}

	same := &Idempotency{ID: "i2", UserID: "u1", Scope: "dishes", Key: "k1", ResourceID: "d2", Status: 201, ExpiresAt: now}
	if err := db.Create(same).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, scope, key)")
	}
	other := &Idempotency{ID: "i3", UserID: "u1", Scope: "recipes", Key: "k1", ResourceID: "r1", Status: 201, ExpiresAt: now}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("different scope should be accepted: %v", err)
	}
}
