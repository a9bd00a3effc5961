package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

func seedCase(code string) *casefile.Case {
	return &casefile.Case{
		ID:            id.NewCaseID(),
		CaseCode:      code,
		GuestID:       id.GuestID(uuid.New()),
		ServiceID:     id.ServiceID(uuid.New()),
		CurrentStatus: casefile.StatusReceived,
		Steps: []casefile.StepInstance{
			{ID: uuid.New(), StepNumber: 1, StepName: "Receive", IsCurrent: true},
			{ID: uuid.New(), StepNumber: 2, StepName: "Review"},
		},
		CreatedAt: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestInMemoryStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := seedCase("CASE-2026-000001")

	require.NoError(t, s.Insert(ctx, c))
	assert.Equal(t, int64(1), c.Version)

	t.Run("find by id", func(t *testing.T) {
		got, err := s.Find(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.CaseCode, got.CaseCode)
		assert.Len(t, got.Steps, 2)
	})

	t.Run("find by code", func(t *testing.T) {
		got, err := s.FindByCode(ctx, c.CaseCode)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := s.Find(ctx, id.NewCaseID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		dup := seedCase(c.CaseCode)
		assert.ErrorIs(t, s.Insert(ctx, dup), sentinel.ErrConflict)
	})

	t.Run("snapshots are isolated", func(t *testing.T) {
		got, err := s.Find(ctx, c.ID)
		require.NoError(t, err)
		got.Steps[0].IsFinished = true

		again, err := s.Find(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, again.Steps[0].IsFinished, "mutating a snapshot must not leak into the store")
	})
}

func TestInMemoryStore_SaveVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := seedCase("CASE-2026-000002")
	require.NoError(t, s.Insert(ctx, c))

	first, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	second, err := s.Find(ctx, c.ID)
	require.NoError(t, err)

	first.Notes = "writer one"
	saved, err := s.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	second.Notes = "writer two"
	_, err = s.Save(ctx, second)
	assert.ErrorIs(t, err, sentinel.ErrConflict, "stale version must be rejected")

	got, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer one", got.Notes)
}

func TestInMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	a := seedCase("CASE-2026-000003")
	a.CurrentStatus = casefile.StatusProcessing
	a.PriorityLevel = 2
	b := seedCase("CASE-2026-000004")
	b.CreatedAt = a.CreatedAt.Add(time.Hour)
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))

	t.Run("filter by status", func(t *testing.T) {
		st := casefile.StatusProcessing
		got, err := s.Search(ctx, Filter{Status: &st})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
	})

	t.Run("filter by priority", func(t *testing.T) {
		min := 1
		got, err := s.Search(ctx, Filter{MinPriority: &min})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
	})

	t.Run("filter by code substring", func(t *testing.T) {
		got, err := s.Search(ctx, Filter{CodeContains: "000004"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		got, err := s.Search(ctx, Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})
}
