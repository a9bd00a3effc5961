package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxAndFrom(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok, "bare context carries no transaction")

	outer := &sql.Tx{}
	ctx = WithTx(ctx, outer)
	got, ok := From(ctx)
	require.True(t, ok)
	assert.Same(t, outer, got)
}

func TestWithTx_NilIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
}

func TestRun_JoinsAmbientTransaction(t *testing.T) {
	outer := &sql.Tx{}
	ctx := WithTx(context.Background(), outer)

	// db is nil on purpose: joining must not open a new transaction.
	called := false
	err := Run(ctx, nil, func(ctx context.Context) error {
		called = true
		got, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, outer, got)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRun_JoinedErrorsStayWithOwner(t *testing.T) {
	ctx := WithTx(context.Background(), &sql.Tx{})

	wantErr := errors.New("step failed")
	err := Run(ctx, nil, func(context.Context) error { return wantErr })
	assert.ErrorIs(t, err, wantErr, "joined runs surface fn errors untouched")
}
