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

// ToggleLike flips userID's like on dishID and keeps dishes.likes_count in
// step within the same transaction. The dish's updated_at moves with the
// count so listing ETags change when popularity does. It returns the new like state and the
// dish's updated count, or ErrNotFound if the dish does not exist.
func ToggleLike(ctx context.Context, db *gorm.DB, userID, dishID string) (liked bool, count int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dq := tx.Model(&domain.Dish{}).Select("id", "likes_count").Where("id = ?", dishID)
		if tx.Dialector.Name() == "postgres" {
			dq = dq.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var d domain.Dish
		if err := dq.First(&d).Error; err != nil {
			return err
		}

		var existing domain.Like
		lerr := tx.Where("user_id = ? AND dish_id = ?", userID, dishID).First(&existing).Error
		switch {
		case lerr == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Dish{}).
				Where("id = ? AND likes_count > 0", dishID).
				UpdateColumns(map[string]any{"likes_count": gorm.Expr("likes_count - 1"), "updated_at": time.Now().UTC()}).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(lerr, gorm.ErrRecordNotFound):
			lk := &domain.Like{ID: uuid.NewString(), UserID: userID, DishID: dishID, CreatedAt: time.Now().UTC()}
			if err := tx.Omit(clause.Associations).Create(lk).Error; err != nil {
				if isDuplicate(err) {
					return ErrDuplicate
				}
				return err
			}
			if err := tx.Model(&domain.Dish{}).
				Where("id = ?", dishID).
				UpdateColumns(map[string]any{"likes_count": gorm.Expr("likes_count + 1"), "updated_at": time.Now().UTC()}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return lerr
		}

		return tx.Model(&domain.Dish{}).Select("likes_count").Where("id = ?", dishID).Scan(&count).Error
	})
	return liked, count, err
}

// IsLiked reports whether userID likes dishID.
func IsLiked(ctx context.Context, db *gorm.DB, userID, dishID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND dish_id = ?", userID, dishID).
		Count(&n).Error
	return n > 0, err
}

// ListLikedDishes returns the dishes userID likes, most recently liked first.
func ListLikedDishes(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Dish, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []domain.Dish
	err := db.WithContext(ctx).
		Model(&domain.Dish{}).
		Select("dishes.*").
		Joins("JOIN likes ON likes.dish_id = dishes.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
