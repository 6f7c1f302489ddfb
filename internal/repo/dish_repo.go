// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Dish model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - Missing rows yield ErrNotFound (gorm.ErrRecordNotFound).
//   - Unique violations on (country, name) yield ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("duplicate")

// Listing sort orders.
const (
	SortPopular = "popular"
	SortRecent  = "recent"
)

// DefaultListLimit caps listings when the caller passes a non-positive limit.
const DefaultListLimit = 50

// CreateDish inserts d. ID and timestamps are assigned when empty and the
// like counter always starts at zero.
func CreateDish(ctx context.Context, db *gorm.DB, d *domain.Dish) error {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.LikesCount = 0
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ImportDishes bulk-inserts rows, silently skipping any whose (country, name)
// already exists. It returns the number of rows actually inserted.
func ImportDishes(ctx context.Context, db *gorm.DB, dishes []domain.Dish) (int64, error) {
	if len(dishes) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range dishes {
		if dishes[i].ID == "" {
			dishes[i].ID = uuid.NewString()
		}
		if dishes[i].CreatedAt.IsZero() {
			dishes[i].CreatedAt = now
		}
		dishes[i].UpdatedAt = dishes[i].CreatedAt
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dishes)
	return res.RowsAffected, res.Error
}

// GetDish fetches a dish by ID or returns ErrNotFound.
func GetDish(ctx context.Context, db *gorm.DB, id string) (*domain.Dish, error) {
	var d domain.Dish
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDishes returns dishes optionally filtered by category. sort is
// SortPopular (most liked first) or SortRecent (newest first).
func ListDishes(ctx context.Context, db *gorm.DB, category domain.Category, sort string, limit int) ([]domain.Dish, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := db.WithContext(ctx).Model(&domain.Dish{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if sort == SortRecent {
		q = q.Order("created_at desc")
	} else {
		q = q.Order("likes_count desc").Order("created_at desc")
	}
	var out []domain.Dish
	err := q.Limit(limit).Find(&out).Error
	return out, err
}

// ListDishesByAuthor returns a contributor's dishes, newest first.
func ListDishesByAuthor(ctx context.Context, db *gorm.DB, authorID string, limit int) ([]domain.Dish, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []domain.Dish
	err := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListRecentDishes returns up to limit dishes, newest first.
func ListRecentDishes(ctx context.Context, db *gorm.DB, limit int) ([]domain.Dish, error) {
	var out []domain.Dish
	err := db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateDish applies fields to the dish with the given id. It returns
// ErrNotFound when no row matches.
func UpdateDish(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Dish{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDish removes a dish and its likes in one transaction.
func DeleteDish(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Dish{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DistinctCountries lists every country with at least one dish, sorted.
// A non-empty region restricts the result to that region.
func DistinctCountries(ctx context.Context, db *gorm.DB, region string) ([]string, error) {
	q := db.WithContext(ctx).Model(&domain.Dish{})
	if region != "" {
		q = q.Where("region = ?", region)
	}
	var out []string
	err := q.Distinct().Order("country asc").Pluck("country", &out).Error
	return out, err
}

// DishNamesByCountryAndCategory lists the distinct names of dishes of a
// category from a country, sorted.
func DishNamesByCountryAndCategory(ctx context.Context, db *gorm.DB, country string, category domain.Category) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Dish{}).
		Where("country = ? AND category = ?", country, category).
		Distinct().
		Order("name asc").
		Pluck("name", &out).Error
	return out, err
}
