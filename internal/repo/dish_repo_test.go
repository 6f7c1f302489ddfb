package repo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

func TestCreateDish_AssignsFieldsAndRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := &domain.Dish{Name: "ラーメン", Country: "Japan", Region: "Asia", Category: domain.CategoryStapleFood, AuthorID: "u1", LikesCount: 42}
	if err := CreateDish(ctx, db, d); err != nil {
		t.Fatalf("CreateDish: %v", err)
	}
	if d.ID == "" || d.CreatedAt.IsZero() || d.LikesCount != 0 {
		t.Fatalf("unexpected fields: %+v", d)
	}

	got, err := GetDish(ctx, db, d.ID)
	if err != nil || got.Name != "ラーメン" || got.Category != domain.CategoryStapleFood {
		t.Fatalf("GetDish = %+v, %v", got, err)
	}

	again := &domain.Dish{Name: "ラーメン", Country: "Japan", Region: "Asia", Category: domain.CategoryMainDish, AuthorID: "u2"}
	if err := CreateDish(ctx, db, again); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := GetDish(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDishes_FilterSortLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := seedDish(t, db, "Sushi", "Japan", domain.CategoryMainDish)
	b := seedDish(t, db, "Tempura", "Japan", domain.CategoryMainDish)
	seedDish(t, db, "Mochi", "Japan", domain.CategoryDessert)

	if _, _, err := ToggleLike(ctx, db, "fan", a.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	popular, err := ListDishes(ctx, db, domain.CategoryMainDish, SortPopular, 10)
	if err != nil || len(popular) != 2 || popular[0].ID != a.ID {
		t.Fatalf("popular = %+v, %v", popular, err)
	}
	recent, err := ListDishes(ctx, db, domain.CategoryMainDish, SortRecent, 10)
	if err != nil || len(recent) != 2 || recent[0].ID != b.ID {
		t.Fatalf("recent = %+v, %v", recent, err)
	}
	all, err := ListDishes(ctx, db, "", "", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	limited, _ := ListDishes(ctx, db, "", SortRecent, 1)
	if len(limited) != 1 || limited[0].Name != "Mochi" {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestListDishesByAuthorAndRecent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedDish(t, db, "A", "Italy", domain.CategoryMainDish)
	seedDish(t, db, "B", "Italy", domain.CategoryMainDish)
	other := &domain.Dish{Name: "C", Country: "Italy", Region: "Europe", Category: domain.CategoryDessert, AuthorID: "someone-else"}
	if err := CreateDish(ctx, db, other); err != nil {
		t.Fatalf("CreateDish: %v", err)
	}

	mine, err := ListDishesByAuthor(ctx, db, "author-1", 0)
	if err != nil || len(mine) != 2 || mine[0].Name != "B" {
		t.Fatalf("by author = %+v, %v", mine, err)
	}
	recent, err := ListRecentDishes(ctx, db, 2)
	if err != nil || len(recent) != 2 || recent[0].Name != "C" {
		t.Fatalf("recent = %+v, %v", recent, err)
	}
}

func TestUpdateAndDeleteDish(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	d := seedDish(t, db, "Pizza", "Italy", domain.CategoryStapleFood)
	if _, _, err := ToggleLike(ctx, db, "u9", d.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	if err := UpdateDish(ctx, db, d.ID, map[string]any{"description": "round"}); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}
	got, _ := GetDish(ctx, db, d.ID)
	if got.Description != "round" || got.UpdatedAt.Before(d.UpdatedAt) {
		t.Fatalf("update not applied: %+v", got)
	}
	if err := UpdateDish(ctx, db, "nope", map[string]any{"description": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := UpdateDish(ctx, db, d.ID, nil); err != nil {
		t.Fatalf("empty update should be a no-op: %v", err)
	}

	if err := DeleteDish(ctx, db, d.ID); err != nil {
		t.Fatalf("DeleteDish: %v", err)
	}
	if liked, _ := IsLiked(ctx, db, "u9", d.ID); liked {
		t.Fatalf("likes should be removed with the dish")
	}
	if err := DeleteDish(ctx, db, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestDistinctCountriesAndPools(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedDish(t, db, "Pho", "Vietnam", domain.CategoryStapleFood)
	seedDish(t, db, "ご飯", "Japan", domain.CategoryStapleFood)
	seedDish(t, db, "うどん", "Japan", domain.CategoryStapleFood)
	seedDish(t, db, "唐揚げ", "Japan", domain.CategoryMainDish)
	eu := &domain.Dish{Name: "Paella", Country: "Spain", Region: "Europe", Category: domain.CategoryStapleFood, AuthorID: "x"}
	if err := CreateDish(ctx, db, eu); err != nil {
		t.Fatalf("CreateDish: %v", err)
	}

	all, err := DistinctCountries(ctx, db, "")
	if err != nil || !reflect.DeepEqual(all, []string{"Japan", "Spain", "Vietnam"}) {
		t.Fatalf("countries = %v, %v", all, err)
	}
	asia, _ := DistinctCountries(ctx, db, "Asia")
	if !reflect.DeepEqual(asia, []string{"Japan", "Vietnam"}) {
		t.Fatalf("asia = %v", asia)
	}

	staples, err := DishNamesByCountryAndCategory(ctx, db, "Japan", domain.CategoryStapleFood)
	if err != nil || !reflect.DeepEqual(staples, []string{"うどん", "ご飯"}) {
		t.Fatalf("staples = %v, %v", staples, err)
	}
	none, err := DishNamesByCountryAndCategory(ctx, db, "Japan", domain.CategoryDessert)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty pool, got %v, %v", none, err)
	}
}

func TestImportDishes_SkipsExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedDish(t, db, "Pho", "Vietnam", domain.CategoryStapleFood)

	rows := []domain.Dish{
		{Name: "Pho", Country: "Vietnam", Region: "Asia", Category: domain.CategoryStapleFood, AuthorID: "system"},
		{Name: "Banh Mi", Country: "Vietnam", Region: "Asia", Category: domain.CategoryMainDish, AuthorID: "system"},
	}
	n, err := ImportDishes(ctx, db, rows)
	if err != nil || n != 1 {
		t.Fatalf("ImportDishes = %d, %v", n, err)
	}
	if n, err := ImportDishes(ctx, db, nil); err != nil || n != 0 {
		t.Fatalf("empty import = %d, %v", n, err)
	}
}
