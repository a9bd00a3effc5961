package store

import (
	"context"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// Filter narrows a case search. Zero-valued fields do not constrain.
type Filter struct {
	Status       *casefile.Status
	GuestID      *id.GuestID
	MinPriority  *int
	CodeContains string
	Limit        int
}

// Store is the persistence port for case aggregates. Implementations are
// interface-driven so the controllers can run against in-memory, postgres,
// or future persistence without rewiring business code.
//
// Save enforces optimistic concurrency: it compares the aggregate's Version
// against the stored one and returns sentinel.ErrConflict (wrapped) when
// they diverge. On success the returned snapshot carries the bumped version.
// Find returns sentinel.ErrNotFound for unknown ids.
type Store interface {
	Insert(ctx context.Context, c *casefile.Case) error
	Find(ctx context.Context, caseID id.CaseID) (*casefile.Case, error)
	FindByCode(ctx context.Context, caseCode string) (*casefile.Case, error)
	Save(ctx context.Context, c *casefile.Case) (*casefile.Case, error)
	Search(ctx context.Context, filter Filter) ([]*casefile.Case, error)
}
