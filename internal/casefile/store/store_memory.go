package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps case aggregates in process memory. It implements the
// same version-checked save semantics as the postgres store so the single
// concurrency retry in the controllers is exercised by unit tests too.
type InMemoryStore struct {
	mu     sync.RWMutex
	cases  map[id.CaseID]*casefile.Case
	byCode map[string]id.CaseID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cases:  make(map[id.CaseID]*casefile.Case),
		byCode: make(map[string]id.CaseID),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, c *casefile.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
	}
	if _, ok := s.byCode[c.CaseCode]; ok {
		return fmt.Errorf("case code %s: %w", c.CaseCode, sentinel.ErrConflict)
	}
	stored := c.Clone()
	stored.Version = 1
	s.cases[stored.ID] = stored
	s.byCode[stored.CaseCode] = stored.ID
	c.Version = stored.Version
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, caseID id.CaseID) (*casefile.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, sentinel.ErrNotFound)
	}
	return stored.Clone(), nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, caseCode string) (*casefile.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	caseID, ok := s.byCode[caseCode]
	if !ok {
		return nil, fmt.Errorf("case code %s: %w", caseCode, sentinel.ErrNotFound)
	}
	return s.cases[caseID].Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, c *casefile.Case) (*casefile.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[c.ID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", c.ID, sentinel.ErrNotFound)
	}
	if stored.Version != c.Version {
		return nil, fmt.Errorf("case %s version %d (stored %d): %w",
			c.ID, c.Version, stored.Version, sentinel.ErrConflict)
	}
	next := c.Clone()
	next.Version = stored.Version + 1
	s.cases[next.ID] = next
	return next.Clone(), nil
}

func (s *InMemoryStore) Search(_ context.Context, filter Filter) ([]*casefile.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*casefile.Case
	for _, c := range s.cases {
		if !matches(c, filter) {
			continue
		}
		out = append(out, c.Clone())
	}
	// Newest first, matching the portal's staff list view.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(c *casefile.Case, filter Filter) bool {
	if filter.Status != nil && c.CurrentStatus != *filter.Status {
		return false
	}
	if filter.GuestID != nil && c.GuestID != *filter.GuestID {
		return false
	}
	if filter.MinPriority != nil && c.PriorityLevel < *filter.MinPriority {
		return false
	}
	if filter.CodeContains != "" && !strings.Contains(c.CaseCode, filter.CodeContains) {
		return false
	}
	return true
}
