package profile

import (
	"context"
	"sync"
	"time"

	id "opsdash/pkg/domain"
	"opsdash/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used in tests and for local runs
// without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[id.UserID]*Profile
	usernames map[string]id.UserID
	clock     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore builds an empty in-memory profile store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID:      make(map[id.UserID]*Profile),
		usernames: make(map[string]id.UserID),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Find(ctx context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[userID]
	if !ok || p.Deactivated() {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DeletionStatus(ctx context.Context, userID id.UserID) (DeletionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[userID]
	if !ok {
		return DeletionStatus{}, sentinel.ErrNotFound
	}
	return DeletionStatus{DeletedAt: p.DeletedAt}, nil
}

func (s *MemoryStore) Insert(ctx context.Context, p *Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[p.ID]; exists {
		return nil, sentinel.ErrConflict
	}
	if _, taken := s.usernames[p.Username]; taken {
		return nil, sentinel.ErrConflict
	}

	now := s.clock()
	cp := *p
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.byID[cp.ID] = &cp
	s.usernames[cp.Username] = cp.ID

	out := cp
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, userID id.UserID, patch Patch) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[userID]
	if !ok || p.Deactivated() {
		return nil, sentinel.ErrNotFound
	}
	if patch.Username != nil && *patch.Username != p.Username {
		if owner, taken := s.usernames[*patch.Username]; taken && owner != userID {
			return nil, sentinel.ErrConflict
		}
		delete(s.usernames, p.Username)
		s.usernames[*patch.Username] = userID
	}

	patch.apply(p)
	p.UpdatedAt = s.clock()
	cp := *p
	return &cp, nil
}

// Deactivate sets the soft-delete marker. Tests use this to simulate
// out-of-band deactivation mid-session.
func (s *MemoryStore) Deactivate(userID id.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[userID]; ok {
		now := s.clock()
		p.DeletedAt = &now
	}
}
