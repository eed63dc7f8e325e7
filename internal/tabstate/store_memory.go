package tabstate

import (
	"context"
	"sync"
	"time"

	id "opsdash/pkg/domain"
)

// MemoryStore keeps markers in memory for tests and single-instance runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	clock   func() time.Time
	ttl     time.Duration
}

// NewMemoryStore builds an empty in-memory marker store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		clock:   time.Now,
		ttl:     DefaultTTL,
	}
}

func (s *MemoryStore) set(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = s.clock().Add(s.ttl)
}

func (s *MemoryStore) get(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.clock().After(expiry) {
		delete(s.entries, key)
		return false
	}
	return true
}

func (s *MemoryStore) clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) SetRecovery(ctx context.Context, ctxID id.ContextID) error {
	s.set(recoveryKey(ctxID))
	return nil
}

func (s *MemoryStore) InRecovery(ctx context.Context, ctxID id.ContextID) (bool, error) {
	return s.get(recoveryKey(ctxID)), nil
}

func (s *MemoryStore) ClearRecovery(ctx context.Context, ctxID id.ContextID) error {
	s.clear(recoveryKey(ctxID))
	return nil
}

func (s *MemoryStore) SetBackupCodeVerified(ctx context.Context, ctxID id.ContextID) error {
	s.set(backupCodeKey(ctxID))
	return nil
}

func (s *MemoryStore) BackupCodeVerified(ctx context.Context, ctxID id.ContextID) (bool, error) {
	return s.get(backupCodeKey(ctxID)), nil
}

func (s *MemoryStore) ConsumeBackupCode(ctx context.Context, ctxID id.ContextID) error {
	s.clear(backupCodeKey(ctxID))
	return nil
}

func recoveryKey(ctxID id.ContextID) string   { return "tab:" + ctxID.String() + ":recovery" }
func backupCodeKey(ctxID id.ContextID) string { return "tab:" + ctxID.String() + ":backup_code" }
