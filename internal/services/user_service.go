// Package services – UserService
//
// UserService manages the profile attached to an authenticated account. The
// profile id is the token subject, so a caller can only ever register or edit
// their own profile.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/repo"
)

const (
	maxDisplayNameRunes = 64
	maxBioRunes         = 1000
)

// ProfileInput carries editable profile fields. Nil pointers are left alone
// on update.
type ProfileInput struct {
	Email           *string `json:"email"             example:"taro@example.com"`
	DisplayName     *string `json:"display_name"      example:"Taro"`
	Bio             *string `json:"bio"               example:"Loves ramen"`
	ProfileImageURL *string `json:"profile_image_url" example:"https://example.com/taro.png"`
}

type UserService struct {
	DB    *gorm.DB
	Cache *cache.Cache[any]
}

func NewUserService(db *gorm.DB, c *cache.Cache[any]) *UserService {
	return &UserService{DB: db, Cache: c}
}

// Register creates the profile for userID. A missing email falls back to
// tokenEmail, the address carried by the caller's token.
func (s *UserService) Register(ctx context.Context, userID, tokenEmail string, in ProfileInput) (*domain.User, error) {
	u := &domain.User{ID: userID, Email: strings.TrimSpace(tokenEmail)}
	if err := applyProfileInput(u, in, true); err != nil {
		return nil, err
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Update applies the set fields of in to userID's profile and drops cached
// views derived from that user.
func (s *UserService) Update(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := applyProfileInput(&next, in, false); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if next.Email != cur.Email {
		fields["email"] = next.Email
	}
	if next.DisplayName != cur.DisplayName {
		fields["display_name"] = next.DisplayName
	}
	if next.Bio != cur.Bio {
		fields["bio"] = next.Bio
	}
	if next.ProfileImageURL != cur.ProfileImageURL {
		fields["profile_image_url"] = next.ProfileImageURL
	}
	if len(fields) == 0 {
		return cur, nil
	}
	if err := repo.UpdateUser(ctx, s.DB, userID, fields); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrProfileExists
		}
		return nil, err
	}
	s.Cache.DeleteContaining(userID)
	return s.Get(ctx, userID)
}

func applyProfileInput(u *domain.User, in ProfileInput, create bool) error {
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Email != nil || create {
		if u.Email == "" {
			return ErrEmailRequired
		}
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return ErrEmailRequired
		}
	}
	if in.DisplayName != nil || create {
		v := ""
		if in.DisplayName != nil {
			v = strings.TrimSpace(*in.DisplayName)
		}
		if v == "" {
			return ErrDisplayNameRequired
		}
		if utf8.RuneCountInString(v) > maxDisplayNameRunes {
			return ErrTooLong
		}
		u.DisplayName = v
	}
	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(v) > maxBioRunes {
			return ErrTooLong
		}
		u.Bio = v
	}
	if in.ProfileImageURL != nil {
		v := strings.TrimSpace(*in.ProfileImageURL)
		if utf8.RuneCountInString(v) > maxURLRunes {
			return ErrTooLong
		}
		u.ProfileImageURL = v
	}
	return nil
}
