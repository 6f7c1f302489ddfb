// Package domain defines the persistence models for dishes, likes, users and
// saved recipes. These types are mapped with GORM and form the core data layer
// of the recipe roulette application.
package domain

import (
	"time"
)

// Category classifies a dish. The stored values are part of the public API.
type Category string

const (
	// CategoryStapleFood is a staple (rice, noodles, bread...). It is drawn in
	// the roulette's staple food stage.
	CategoryStapleFood Category = "main_food"
	CategoryMainDish   Category = "main_dish"
	CategorySideDish   Category = "side_dish"
	CategoryDessert    Category = "dessert"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryStapleFood, CategoryMainDish, CategorySideDish, CategoryDessert}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Region is a coarse geographic grouping of countries.
type Region string

// Regions lists every valid region.
var Regions = []Region{
	"Asia", "Europe", "North America", "South America",
	"Africa", "Middle East", "Oceania", "Others",
}

func (r Region) Valid() bool {
	for _, v := range Regions {
		if r == v {
			return true
		}
	}
	return false
}

// Dish is a user-contributed catalog entry.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / NameEn: display name and optional English name. (Country, Name)
//     is unique.
//   - Country / Region: where the dish comes from; Region is one of Regions.
//   - Category: one of Categories (enforced by DB constraint).
//   - AuthorID / AuthorName: contributor; "system" for imported rows.
//   - LikesCount: denormalized count of Like rows, never negative.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Dish struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(255);not null;uniqueIndex:ux_dish_country_name,priority:2"`
	NameEn      string    `json:"name_en,omitempty" gorm:"type:varchar(255)"`
	Country     string    `json:"country"     gorm:"type:varchar(128);not null;uniqueIndex:ux_dish_country_name,priority:1;index:idx_dish_country_cat,priority:1"`
	Region      Region    `json:"region"      gorm:"type:varchar(32);not null;index"`
	Category    Category  `json:"category"    gorm:"type:varchar(16);not null;index:idx_dish_country_cat,priority:2;check:category IN ('main_food','main_dish','side_dish','dessert')"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	ImageURL    string    `json:"image_url,omitempty"   gorm:"type:varchar(1024)"`
	AuthorID    string    `json:"author_id"   gorm:"type:varchar(64);not null;index:idx_dish_author"`
	AuthorName  string    `json:"author_name" gorm:"type:varchar(255)"`
	LikesCount  int       `json:"likes_count" gorm:"not null;default:0;index;check:likes_count >= 0"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Dish.
func (Dish) TableName() string { return "dishes" }

// Like records that a user likes a dish. A user can like a dish at most once.
type Like struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_like_user_dish,priority:1"`
	DishID    string    `json:"dish_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_like_user_dish,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Dish is the liked dish. Likes are cascade-deleted with it.
	Dish Dish `json:"-" gorm:"foreignKey:DishID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Like) TableName() string { return "likes" }

// User is the profile of an authenticated account. ID is the token subject.
type User struct {
	ID              string    `json:"id"           gorm:"type:varchar(64);primaryKey"`
	Email           string    `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName     string    `json:"display_name" gorm:"type:varchar(255);not null"`
	Bio             string    `json:"bio,omitempty"               gorm:"type:text"`
	ProfileImageURL string    `json:"profile_image_url,omitempty" gorm:"type:varchar(1024)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Recipe is an AI-generated recipe a user chose to keep.
type Recipe struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_recipes,priority:1"`
	Country   string    `json:"country"    gorm:"type:varchar(128);not null"`
	MainFood  string    `json:"main_food"  gorm:"type:varchar(255);not null"`
	MainDish  string    `json:"main_dish"  gorm:"type:varchar(255);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_user_recipes,priority:2"`
}

func (Recipe) TableName() string { return "recipes" }
