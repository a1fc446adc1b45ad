package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"water-app-go/internal/store"
	"water-app-go/pkg/apperr"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

const defaultProfileTTL = 10 * time.Minute

type Service struct {
	repo       Repository
	cost       int
	cache      ProfileCache
	profileTTL time.Duration
}

func NewService(repo Repository) *Service {
	return NewServiceWithCost(repo, bcrypt.DefaultCost)
}

// NewServiceWithCost is used by tests to keep hashing cheap.
func NewServiceWithCost(repo Repository, cost int) *Service {
	return &Service{repo: repo, cost: cost, cache: noopCache{}, profileTTL: defaultProfileTTL}
}

func (s *Service) WithProfileCache(cache ProfileCache, ttl time.Duration) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	s.cache = cache
	if ttl > 0 {
		s.profileTTL = ttl
	}
	return s
}

type CreateInput struct {
	UserID     string
	Name       string
	NationalID string
	Password   string
	PhotoRef   string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	input.NationalID = strings.TrimSpace(input.NationalID)

	switch {
	case input.UserID == "":
		return nil, apperr.Validation("user id is required")
	case input.Name == "":
		return nil, apperr.Validation("name is required")
	case input.NationalID == "":
		return nil, apperr.Validation("national id is required")
	case len(input.Password) < minPasswordLength || len(input.Password) > maxPasswordLength:
		return nil, ErrPasswordLength
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, apperr.Validation("password cannot be hashed")
	}

	user := User{
		UserID:       input.UserID,
		Name:         input.Name,
		NationalID:   input.NationalID,
		PasswordHash: string(hash),
		PhotoRef:     strings.TrimSpace(input.PhotoRef),
		Properties:   []string{},
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, apperr.Storage("create user", err)
	}
	return &user, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, Translate(err)
	}
	return user, nil
}

// Profiles resolves ids to display records in the order given, skipping
// unknown ids.
func (s *Service) Profiles(ctx context.Context, userIDs []string) ([]Profile, error) {
	if len(userIDs) == 0 {
		return []Profile{}, nil
	}

	byID := make(map[string]Profile, len(userIDs))
	missing := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.cache.Get(id); ok {
			byID[id] = profile
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		users, err := s.repo.GetMany(ctx, missing)
		if err != nil {
			return nil, apperr.Storage("load profiles", err)
		}
		for i := range users {
			profile := users[i].Profile()
			byID[profile.UserID] = profile
			s.cache.Set(profile, s.profileTTL)
		}
	}

	profiles := make([]Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := byID[id]; ok {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

// Translate maps repository errors for user lookups.
func Translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return apperr.Storage("load user", err)
}
