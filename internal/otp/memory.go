package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps codes in process memory. Codes are lost on restart.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewMemoryStore creates a MemoryStore. Zero values use the package defaults.
func NewMemoryStore(ttl time.Duration, maxAttempts int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &MemoryStore{
		entries:     make(map[string]*Entry),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Generate issues a fresh code for phone.
func (s *MemoryStore) Generate(ctx context.Context, phone string) (string, error) {
	code, err := NewCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = NewEntry(code, s.now(), s.ttl)
	return code, nil
}

// Verify consumes the pending code for phone if code matches.
func (s *MemoryStore) Verify(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phone]
	if !ok {
		return ErrNotFound
	}

	drop, err := e.Check(code, s.now(), s.maxAttempts)
	if drop {
		delete(s.entries, phone)
	}
	return err
}

// Sweep removes expired codes and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for phone, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed
}

// Len returns the number of pending codes.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

var _ Store = (*MemoryStore)(nil)
