package staff

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// Store is the persistence port for staff accounts.
type Store interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

// InMemoryStore keeps accounts in process memory. Operator accounts are
// seeded at startup; there is no self-service registration.
type InMemoryStore struct {
	mu         sync.RWMutex
	byUsername map[string]*Account
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUsername: make(map[string]*Account)}
}

func (s *InMemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Username)
	if _, ok := s.byUsername[key]; ok {
		return fmt.Errorf("username %s: %w", account.Username, sentinel.ErrConflict)
	}
	stored := *account
	s.byUsername[key] = &stored
	return nil
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, fmt.Errorf("username %s: %w", username, sentinel.ErrNotFound)
	}
	out := *stored
	return &out, nil
}
