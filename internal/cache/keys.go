package cache

import (
	"strconv"
	"strings"
)

// Key prefixes used for invalidation.
const (
	PrefixDishes = "dishes:"
	PrefixSearch = "search:"
)

// DishesKey identifies a dish listing. Empty parts fall back to the listing
// defaults so that equivalent requests share an entry.
func DishesKey(category, sort string, limit int) string {
	if category == "" {
		category = "all"
	}
	if sort == "" {
		sort = "popular"
	}
	if limit <= 0 {
		limit = 50
	}
	return PrefixDishes + category + ":" + sort + ":" + strconv.Itoa(limit)
}

func UserLikedKey(userID string) string { return "user-liked-dishes:" + userID }

func AuthorDishesKey(authorID string) string { return PrefixDishes + "author:" + authorID }

// SearchKey lowercases term so that searches differing only in case share an entry.
func SearchKey(term string, max int) string {
	return PrefixSearch + strings.ToLower(term) + ":" + strconv.Itoa(max)
}

func CountriesKey(region string) string {
	if region == "" {
		region = "all"
	}
	return PrefixDishes + "countries:" + region
}

func PoolKey(country, category string) string {
	return PrefixDishes + "pool:" + country + ":" + category
}
