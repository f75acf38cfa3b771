package auth

import (
	"context"
	"sync"
	"time"
)

// memoryStore is an in-memory Store used in tests and local development
// where a database is not available. It enforces the same uniqueness
// rules as the Postgres store.
type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*User
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() Store {
	return &memoryStore{
		nextID: 1,
		byID:   make(map[int64]*User),
	}
}

func (s *memoryStore) findByEmail(email string) *User {
	for _, u := range s.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *memoryStore) findByUsername(username string) *User {
	for _, u := range s.byID {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *memoryStore) Create(ctx context.Context, nu NewUser) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(nu.Email) != nil {
		return nil, &DuplicateError{Field: "email"}
	}
	if s.findByUsername(nu.Username) != nil {
		return nil, &DuplicateError{Field: "username"}
	}

	provider := nu.SocialProvider
	if provider == "" {
		provider = ProviderNone
	}

	now := time.Now()
	u := &User{
		ID:             s.nextID,
		Username:       nu.Username,
		Email:          nu.Email,
		PasswordHash:   nu.PasswordHash,
		Image:          nu.Image,
		SocialProvider: provider,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextID++
	s.byID[u.ID] = u

	clone := *u
	return &clone, nil
}

func (s *memoryStore) ByID(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) ByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.findByEmail(email)
	if u == nil {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) ByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.findByUsername(username)
	if u == nil {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) Update(ctx context.Context, id int64, p Patch) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if p.Username != nil && *p.Username != u.Username {
		if other := s.findByUsername(*p.Username); other != nil && other.ID != id {
			return nil, &DuplicateError{Field: "username"}
		}
		u.Username = *p.Username
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Image != nil {
		u.Image = *p.Image
	}
	if p.SocialProvider != nil {
		u.SocialProvider = *p.SocialProvider
	}
	u.UpdatedAt = time.Now()

	clone := *u
	return &clone, nil
}

func (s *memoryStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (s *memoryStore) SetVerified(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	u.Verified = true
	u.UpdatedAt = time.Now()
	return true, nil
}

func (s *memoryStore) FindOrCreateByEmail(ctx context.Context, nu NewUser) (*User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.findByEmail(nu.Email); u != nil {
		clone := *u
		return &clone, false, nil
	}

	if s.findByUsername(nu.Username) != nil {
		return nil, false, &DuplicateError{Field: "username"}
	}

	provider := nu.SocialProvider
	if provider == "" {
		provider = ProviderNone
	}

	now := time.Now()
	u := &User{
		ID:             s.nextID,
		Username:       nu.Username,
		Email:          nu.Email,
		PasswordHash:   nu.PasswordHash,
		Image:          nu.Image,
		SocialProvider: provider,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextID++
	s.byID[u.ID] = u

	clone := *u
	return &clone, true, nil
}
