// Package services – DishService
//
// This file implements DishService, which owns the dish catalog: listing,
// CRUD with author ownership, keyword search and the candidate pools the
// roulette draws from. Reads go through the shared TTL cache; every write
// drops the dish and search namespaces so that no listing outlives a change.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/repo"
	"github.com/tbourn/recipe-roulette/internal/search"
)

const (
	maxNameRunes        = 255
	maxCountryRunes     = 128
	maxDescriptionRunes = 5000
	maxURLRunes         = 1024
	anonymousAuthor     = "Anonymous"
)

// DishInput carries the user-editable dish fields. Nil pointers in an update
// leave the stored value alone.
type DishInput struct {
	Name        *string `json:"name"        example:"唐揚げ"`
	NameEn      *string `json:"name_en"     example:"karaage"`
	Country     *string `json:"country"     example:"Japan"`
	Region      *string `json:"region"      example:"Asia"`
	Category    *string `json:"category"    example:"main_dish"`
	Description *string `json:"description" example:"Japanese fried chicken"`
	ImageURL    *string `json:"image_url"   example:"https://example.com/karaage.jpg"`
}

// DishService coordinates dish persistence and caching.
type DishService struct {
	DB    *gorm.DB
	Cache *cache.Cache[any]

	// TTL applies to every cached read; zero uses the cache default.
	TTL time.Duration
	// ScanWindow bounds how many recent dishes a search looks at.
	ScanWindow int
	// MaxResults caps search results.
	MaxResults int

	Idem *Idempotency
}

// NewDishService constructs a DishService with the default search bounds.
func NewDishService(db *gorm.DB, c *cache.Cache[any]) *DishService {
	return &DishService{DB: db, Cache: c, ScanWindow: 500, MaxResults: 100, Idem: NewIdempotency(db, 0)}
}

func (s *DishService) tracer() trace.Tracer { return otel.Tracer("services/DishService") }

// List returns dishes of an optional category sorted by popularity or recency.
func (s *DishService) List(ctx context.Context, category, sort string, limit int) ([]domain.Dish, error) {
	ctx, span := s.tracer().Start(ctx, "List",
		trace.WithAttributes(attribute.String("dish.category", category), attribute.String("sort", sort)))
	defer span.End()

	if category != "" && !domain.Category(category).Valid() {
		return nil, ErrInvalidCategory
	}
	switch sort {
	case "":
		sort = repo.SortPopular
	case repo.SortPopular, repo.SortRecent:
	default:
		return nil, ErrInvalidSort
	}
	if limit <= 0 || limit > repo.DefaultListLimit*2 {
		limit = repo.DefaultListLimit
	}

	return cache.GetOrLoad(ctx, s.Cache, cache.DishesKey(category, sort, limit), s.TTL, func(ctx context.Context) ([]domain.Dish, error) {
		return repo.ListDishes(ctx, s.DB, domain.Category(category), sort, limit)
	})
}

// Stats reports the listing size and freshness for ETag generation.
func (s *DishService) Stats(ctx context.Context, category string) (int64, *time.Time, error) {
	return repo.DishesStats(ctx, s.DB, domain.Category(category))
}

// Get fetches a dish by id.
func (s *DishService) Get(ctx context.Context, id string) (*domain.Dish, error) {
	d, err := repo.GetDish(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDishNotFound
	}
	return d, err
}

// ByAuthor lists a contributor's dishes, newest first.
func (s *DishService) ByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Dish, error) {
	if limit <= 0 {
		limit = repo.DefaultListLimit
	}
	key := cache.AuthorDishesKey(authorID)
	out, err := cache.GetOrLoad(ctx, s.Cache, key, s.TTL, func(ctx context.Context) ([]domain.Dish, error) {
		return repo.ListDishesByAuthor(ctx, s.DB, authorID, repo.DefaultListLimit*2)
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create validates in and stores a new dish authored by userID. The author
// name comes from the user's profile when one exists.
func (s *DishService) Create(ctx context.Context, userID string, in DishInput) (*domain.Dish, error) {
	ctx, span := s.tracer().Start(ctx, "Create", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	d := &domain.Dish{AuthorID: userID, AuthorName: anonymousAuthor}
	if err := applyDishInput(d, in, true); err != nil {
		return nil, err
	}
	if u, err := repo.GetUser(ctx, s.DB, userID); err == nil && u.DisplayName != "" {
		d.AuthorName = u.DisplayName
	}

	if err := repo.CreateDish(ctx, s.DB, d); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDishExists
		}
		return nil, err
	}
	s.invalidateDishes()
	return d, nil
}

// CreateOnce is Create guarded by an Idempotency-Key. A retry with the same
// key returns the dish the first request created and reports a replay.
func (s *DishService) CreateOnce(ctx context.Context, userID, key string, in DishInput) (*domain.Dish, bool, error) {
	if id, ok := s.Idem.Resource(ctx, userID, ScopeCreateDish, key); ok {
		if d, err := s.Get(ctx, id); err == nil {
			return d, true, nil
		}
	}
	d, err := s.Create(ctx, userID, in)
	if err != nil {
		return nil, false, err
	}
	s.Idem.Remember(ctx, userID, ScopeCreateDish, key, d.ID, http.StatusCreated)
	return d, false, nil
}

// Update applies the non-nil fields of in to dish id. Only the author may
// update a dish.
func (s *DishService) Update(ctx context.Context, userID, id string, in DishInput) (*domain.Dish, error) {
	ctx, span := s.tracer().Start(ctx, "Update",
		trace.WithAttributes(attribute.String("dish.id", id), attribute.String("user.id", userID)))
	defer span.End()

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	next := *d
	if err := applyDishInput(&next, in, false); err != nil {
		return nil, err
	}
	fields := dishChanges(d, &next)
	if len(fields) == 0 {
		return d, nil
	}
	if err := repo.UpdateDish(ctx, s.DB, id, fields); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrDishNotFound
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrDishExists
		}
		return nil, err
	}
	s.invalidateDishes()
	return s.Get(ctx, id)
}

// Delete removes dish id and its likes. Only the author may delete a dish.
func (s *DishService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("dish.id", id), attribute.String("user.id", userID)))
	defer span.End()

	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.AuthorID != userID {
		return ErrNotAuthor
	}
	if err := repo.DeleteDish(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDishNotFound
		}
		return err
	}
	s.invalidateDishes()
	// liked-dish views of every user may include it
	s.Cache.DeleteContaining("user-liked-dishes:")
	return nil
}

// Search finds dishes whose name, English name, country or region contains q,
// ignoring case. Only the ScanWindow most recent dishes are considered and at
// most MaxResults are returned, newest first.
func (s *DishService) Search(ctx context.Context, q string, limit int) ([]domain.Dish, error) {
	ctx, span := s.tracer().Start(ctx, "Search", trace.WithAttributes(attribute.String("query", q)))
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrQueryRequired
	}
	maxResults := s.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	out, err := cache.GetOrLoad(ctx, s.Cache, cache.SearchKey(q, limit), s.TTL, func(ctx context.Context) ([]domain.Dish, error) {
		window := s.ScanWindow
		if window <= 0 {
			window = 500
		}
		recent, err := repo.ListRecentDishes(ctx, s.DB, window)
		if err != nil {
			return nil, err
		}
		docs := make([]search.Document, len(recent))
		byID := make(map[string]domain.Dish, len(recent))
		for i, d := range recent {
			docs[i] = search.Document{ID: d.ID, Fields: []string{d.Name, d.NameEn, d.Country, string(d.Region)}}
			byID[d.ID] = d
		}
		ids := search.New(docs, search.WithMaxResults(maxResults)).Search(q, limit)
		hits := make([]domain.Dish, 0, len(ids))
		for _, id := range ids {
			hits = append(hits, byID[id])
		}
		return hits, nil
	})
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, err
}

// Countries lists countries that have at least one dish, optionally within
// region. It satisfies roulette.PoolSource.
func (s *DishService) Countries(ctx context.Context, region string) ([]string, error) {
	if region != "" && !domain.Region(region).Valid() {
		return nil, ErrInvalidRegion
	}
	return cache.GetOrLoad(ctx, s.Cache, cache.CountriesKey(region), s.TTL, func(ctx context.Context) ([]string, error) {
		return repo.DistinctCountries(ctx, s.DB, region)
	})
}

// DishNames lists the names of a country's dishes in one category. It
// satisfies roulette.PoolSource.
func (s *DishService) DishNames(ctx context.Context, country string, category domain.Category) ([]string, error) {
	return cache.GetOrLoad(ctx, s.Cache, cache.PoolKey(country, string(category)), s.TTL, func(ctx context.Context) ([]string, error) {
		return repo.DishNamesByCountryAndCategory(ctx, s.DB, country, category)
	})
}

// invalidateDishes drops every cached listing, pool and search result.
func (s *DishService) invalidateDishes() {
	s.Cache.DeletePrefix(cache.PrefixDishes, cache.PrefixSearch)
}

// applyDishInput copies the set fields of in onto d after trimming and
// validating them. With create set, name, country, region and category are
// required.
func applyDishInput(d *domain.Dish, in DishInput, create bool) error {
	set := func(p *string) (string, bool) {
		if p == nil {
			return "", false
		}
		return strings.TrimSpace(*p), true
	}

	if v, ok := set(in.Name); ok || create {
		if v == "" {
			return ErrNameRequired
		}
		if utf8.RuneCountInString(v) > maxNameRunes {
			return ErrTooLong
		}
		d.Name = v
	}
	if v, ok := set(in.NameEn); ok {
		if utf8.RuneCountInString(v) > maxNameRunes {
			return ErrTooLong
		}
		d.NameEn = titleEnglish(v)
	}
	if v, ok := set(in.Country); ok || create {
		if v == "" {
			return ErrCountryRequired
		}
		if utf8.RuneCountInString(v) > maxCountryRunes {
			return ErrTooLong
		}
		d.Country = v
	}
	if v, ok := set(in.Region); ok || create {
		if !domain.Region(v).Valid() {
			return ErrInvalidRegion
		}
		d.Region = domain.Region(v)
	}
	if v, ok := set(in.Category); ok || create {
		if !domain.Category(v).Valid() {
			return ErrInvalidCategory
		}
		d.Category = domain.Category(v)
	}
	if v, ok := set(in.Description); ok {
		if utf8.RuneCountInString(v) > maxDescriptionRunes {
			return ErrTooLong
		}
		d.Description = v
	}
	if v, ok := set(in.ImageURL); ok {
		if utf8.RuneCountInString(v) > maxURLRunes {
			return ErrTooLong
		}
		d.ImageURL = v
	}
	return nil
}

// dishChanges returns the column updates that turn old into next.
func dishChanges(old, next *domain.Dish) map[string]any {
	f := map[string]any{}
	if old.Name != next.Name {
		f["name"] = next.Name
	}
	if old.NameEn != next.NameEn {
		f["name_en"] = next.NameEn
	}
	if old.Country != next.Country {
		f["country"] = next.Country
	}
	if old.Region != next.Region {
		f["region"] = next.Region
	}
	if old.Category != next.Category {
		f["category"] = next.Category
	}
	if old.Description != next.Description {
		f["description"] = next.Description
	}
	if old.ImageURL != next.ImageURL {
		f["image_url"] = next.ImageURL
	}
	return f
}

// titleEnglish title-cases an all-lowercase English name ("pad thai" ->
// "Pad Thai"); names with any capitals are kept as typed.
func titleEnglish(s string) string {
	if s == "" || s != strings.ToLower(s) {
		return s
	}
	return cases.Title(language.English).String(s)
}
