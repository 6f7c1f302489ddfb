package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

func TestUsers_CreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "uid-1", Email: "a@example.com", DisplayName: "Aki"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := CreateUser(ctx, db, &domain.User{ID: "uid-2", Email: "a@example.com", DisplayName: "Dup"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on email, got %v", err)
	}

	if err := UpdateUser(ctx, db, "uid-1", map[string]any{"bio": "ramen lover"}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, err := GetUser(ctx, db, "uid-1")
	if err != nil || got.Bio != "ramen lover" || got.DisplayName != "Aki" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}
	if err := UpdateUser(ctx, db, "ghost", map[string]any{"bio": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUser(ctx, db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecipes_CreateListGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i, dish := range []string{"唐揚げ", "天ぷら", "寿司"} {
		r := &domain.Recipe{UserID: "u1", Country: "Japan", MainFood: "ご飯", MainDish: dish, Content: "step " + dish}
		if err := CreateRecipe(ctx, db, r); err != nil {
			t.Fatalf("CreateRecipe %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if err := CreateRecipe(ctx, db, &domain.Recipe{UserID: "u2", Country: "Italy", MainFood: "Pasta", MainDish: "Saltimbocca", Content: "x"}); err != nil {
		t.Fatalf("CreateRecipe other: %v", err)
	}

	n, err := CountRecipesByUser(ctx, db, "u1")
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
	page, err := ListRecipesByUser(ctx, db, "u1", 1, 1)
	if err != nil || len(page) != 1 || page[0].MainDish != "天ぷら" {
		t.Fatalf("page = %+v, %v", page, err)
	}

	got, err := GetRecipe(ctx, db, page[0].ID, "u1")
	if err != nil || got.Content != "step 天ぷら" {
		t.Fatalf("GetRecipe = %+v, %v", got, err)
	}
	if _, err := GetRecipe(ctx, db, page[0].ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user must not read it, got %v", err)
	}
}
