package staff

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	tokens := NewJWTService("test-signing-key", "pacsfr", "pacsfr-staff")
	return NewService(NewInMemoryStore(), tokens, slog.New(slog.DiscardHandler))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a validatable token", func(t *testing.T) {
		svc := newService(t)
		seeded, err := svc.Seed(ctx, "nguyen.van.a", "Nguyen Van A", "s3cret-pass")
		require.NoError(t, err)

		session, err := svc.Login(ctx, "nguyen.van.a", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, session.StaffID)
		assert.Equal(t, "Nguyen Van A", session.DisplayName)
		assert.WithinDuration(t, time.Now().Add(accessTokenTTL), session.ExpiresAt, 5*time.Second)

		claims, err := svc.tokens.ValidateToken(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID.String(), claims.StaffID)
		assert.Equal(t, "Nguyen Van A", claims.StaffName)
	})

	t.Run("username lookup is case-insensitive", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.Seed(ctx, "Tran.Thi.B", "Tran Thi B", "pw-123456")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "tran.thi.b", "pw-123456")
		assert.NoError(t, err)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.Seed(ctx, "operator", "Operator", "right-password")
		require.NoError(t, err)

		_, badPass := svc.Login(ctx, "operator", "wrong-password")
		_, noUser := svc.Login(ctx, "nobody", "whatever")
		assert.True(t, dErrors.HasCode(badPass, dErrors.CodeUnauthorized))
		assert.True(t, dErrors.HasCode(noUser, dErrors.CodeUnauthorized))
		assert.Equal(t, badPass.Error(), noUser.Error())
	})
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, err := svc.Seed(ctx, "operator", "Operator", "password-one")
	require.NoError(t, err)
	second, err := svc.Seed(ctx, "operator", "Operator", "password-two")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	_, err = svc.Login(ctx, "operator", "password-one")
	assert.NoError(t, err)
}

func TestTokenValidation(t *testing.T) {
	tokens := NewJWTService("key-a", "pacsfr", "pacsfr-staff")

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		other := NewJWTService("key-b", "pacsfr", "pacsfr-staff")
		svc := NewService(NewInMemoryStore(), other, slog.New(slog.DiscardHandler))
		seeded, err := svc.Seed(context.Background(), "op", "Op", "password-x")
		require.NoError(t, err)

		token, err := other.GenerateAccessToken(seeded.ID, "Op", time.Hour)
		require.NoError(t, err)

		_, err = tokens.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := tokens.ValidateToken("not-a-jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
