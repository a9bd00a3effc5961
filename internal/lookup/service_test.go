package lookup

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

type fakeCaseSource struct {
	cases map[string]*casefile.Case
}

func (f *fakeCaseSource) SnapshotByCode(_ context.Context, caseCode string) (*casefile.Case, error) {
	c, ok := f.cases[caseCode]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return c, nil
}

type capturingSender struct {
	sent []string
}

func (s *capturingSender) Send(_ context.Context, _, code string) error {
	s.sent = append(s.sent, code)
	return nil
}

func (s *capturingSender) last() string { return s.sent[len(s.sent)-1] }

func newLookupFixture(t *testing.T) (*Service, *capturingSender, string) {
	t.Helper()
	const caseCode = "CASE-2026-000123"
	cases := &fakeCaseSource{cases: map[string]*casefile.Case{
		caseCode: {ID: id.NewCaseID(), CaseCode: caseCode, CurrentStatus: casefile.StatusProcessing},
	}}
	sender := &capturingSender{}
	svc := NewService(cases, NewInMemoryChallengeStore(), sender, time.Minute, slog.New(slog.DiscardHandler))
	return svc, sender, caseCode
}

func TestLookupFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("request then verify releases the snapshot", func(t *testing.T) {
		svc, sender, caseCode := newLookupFixture(t)

		require.NoError(t, svc.Request(ctx, caseCode))
		require.Len(t, sender.sent, 1)
		assert.Len(t, sender.last(), 6)

		c, err := svc.Verify(ctx, caseCode, sender.last())
		require.NoError(t, err)
		assert.Equal(t, caseCode, c.CaseCode)

		// Once verified, Snapshot works without re-verification.
		c, err = svc.Snapshot(ctx, caseCode)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusProcessing, c.CurrentStatus)
	})

	t.Run("snapshot before verification is forbidden", func(t *testing.T) {
		svc, _, caseCode := newLookupFixture(t)

		_, err := svc.Snapshot(ctx, caseCode)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		require.NoError(t, svc.Request(ctx, caseCode))
		_, err = svc.Snapshot(ctx, caseCode)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("wrong code is rejected and the right one still works", func(t *testing.T) {
		svc, sender, caseCode := newLookupFixture(t)
		require.NoError(t, svc.Request(ctx, caseCode))

		_, err := svc.Verify(ctx, caseCode, "000000x")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = svc.Verify(ctx, caseCode, sender.last())
		assert.NoError(t, err)
	})

	t.Run("challenge burns after repeated wrong guesses", func(t *testing.T) {
		svc, sender, caseCode := newLookupFixture(t)
		require.NoError(t, svc.Request(ctx, caseCode))

		for i := 0; i < maxAttempts; i++ {
			_, err := svc.Verify(ctx, caseCode, "wrong!")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}

		// The budget is exhausted: even the right code no longer works.
		_, err := svc.Verify(ctx, caseCode, sender.last())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		// And the challenge is gone entirely.
		_, err = svc.Verify(ctx, caseCode, sender.last())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown case code does not reveal itself", func(t *testing.T) {
		svc, sender, _ := newLookupFixture(t)

		err := svc.Request(ctx, "CASE-2026-999999")
		assert.NoError(t, err)
		assert.Empty(t, sender.sent)

		_, err = svc.Verify(ctx, "CASE-2026-999999", "123456")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("resend reissues a fresh code and resets the budget", func(t *testing.T) {
		svc, sender, caseCode := newLookupFixture(t)
		require.NoError(t, svc.Request(ctx, caseCode))
		first := sender.last()

		for i := 0; i < maxAttempts-1; i++ {
			_, _ = svc.Verify(ctx, caseCode, "wrong!")
		}
		require.NoError(t, svc.Resend(ctx, caseCode))
		require.Len(t, sender.sent, 2)

		// The previous code is void after a resend.
		if sender.last() != first {
			_, err := svc.Verify(ctx, caseCode, first)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}

		_, err := svc.Verify(ctx, caseCode, sender.last())
		assert.NoError(t, err)
	})

	t.Run("resend without an active challenge behaves like request", func(t *testing.T) {
		svc, sender, caseCode := newLookupFixture(t)

		require.NoError(t, svc.Resend(ctx, caseCode))
		require.Len(t, sender.sent, 1)
	})
}

func TestChallengeStoreExpiry(t *testing.T) {
	store := NewInMemoryChallengeStore()
	ctx := context.Background()

	challenge := Challenge{CaseCode: "CASE-2026-000001", Code: "123456", State: StateSent}
	require.NoError(t, store.Put(ctx, challenge, -time.Second))

	_, err := store.Get(ctx, "CASE-2026-000001")
	assert.Error(t, err)
}
