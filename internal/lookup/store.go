package lookup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// ChallengeStore persists OTP challenges keyed by case code. Implementations
// must expire entries after the given TTL.
type ChallengeStore interface {
	Put(ctx context.Context, challenge Challenge, ttl time.Duration) error
	Get(ctx context.Context, caseCode string) (Challenge, error)
	Delete(ctx context.Context, caseCode string) error
}

// InMemoryChallengeStore backs tests and local development. Expiry is
// checked lazily on read.
type InMemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	challenge Challenge
	deadline  time.Time
}

func NewInMemoryChallengeStore() *InMemoryChallengeStore {
	return &InMemoryChallengeStore{entries: make(map[string]memoryEntry)}
}

func (s *InMemoryChallengeStore) Put(_ context.Context, challenge Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[challenge.CaseCode] = memoryEntry{
		challenge: challenge,
		deadline:  time.Now().Add(ttl),
	}
	return nil
}

func (s *InMemoryChallengeStore) Get(_ context.Context, caseCode string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[caseCode]
	if !ok {
		return Challenge{}, fmt.Errorf("challenge %s: %w", caseCode, sentinel.ErrNotFound)
	}
	if time.Now().After(entry.deadline) {
		delete(s.entries, caseCode)
		return Challenge{}, fmt.Errorf("challenge %s: %w", caseCode, sentinel.ErrNotFound)
	}
	return entry.challenge, nil
}

func (s *InMemoryChallengeStore) Delete(_ context.Context, caseCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, caseCode)
	return nil
}
