package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

type fakeValidator struct {
	claims *StaffClaims
	err    error
}

func (v fakeValidator) ValidateToken(string) (*StaffClaims, error) {
	return v.claims, v.err
}

func TestRequireStaff(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	staffID := id.StaffID(uuid.New())

	var seenID id.StaffID
	var seenName string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = requestcontext.StaffID(r.Context())
		seenName = requestcontext.StaffName(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		mw := RequireStaff(fakeValidator{claims: &StaffClaims{StaffID: staffID, StaffName: "Operator"}}, logger)
		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, staffID, seenID)
		assert.Equal(t, "Operator", seenName)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		mw := RequireStaff(fakeValidator{}, logger)
		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		mw := RequireStaff(fakeValidator{}, logger)
		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validator rejection is surfaced as 401", func(t *testing.T) {
		mw := RequireStaff(fakeValidator{err: dErrors.New(dErrors.CodeUnauthorized, "token has expired")}, logger)
		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
