package testutil

import (
	"context"
	"net/http"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// WithStaff adds a staff identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the staffID is not a valid UUID, it will not be added to the context.
func WithStaff(req *http.Request, staffID, displayName string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseStaffID(staffID); err == nil {
		ctx = requestcontext.WithStaffID(ctx, parsed)
	}
	if displayName != "" {
		ctx = requestcontext.WithStaffName(ctx, displayName)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
