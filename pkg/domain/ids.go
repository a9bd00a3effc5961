// Package domain holds typed identifiers shared across features.
//
// IDs are distinct named UUID types so the compiler rejects passing a guest
// where a case is expected. Construct them via the Parse helpers at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

type (
	// CaseID identifies one administrative case.
	CaseID uuid.UUID
	// GuestID identifies the citizen a case belongs to.
	GuestID uuid.UUID
	// ServiceID identifies an administrative service in the catalog.
	ServiceID uuid.UUID
	// StaffID identifies an authenticated staff operator.
	StaffID uuid.UUID
)

func (id CaseID) String() string    { return uuid.UUID(id).String() }
func (id GuestID) String() string   { return uuid.UUID(id).String() }
func (id ServiceID) String() string { return uuid.UUID(id).String() }
func (id StaffID) String() string   { return uuid.UUID(id).String() }

func (id CaseID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id GuestID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ServiceID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id StaffID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

// NewCaseID returns a fresh random case ID.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be the nil UUID")
	}
	return u, nil
}

// ParseCaseID constructs a CaseID from external input.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case")
	return CaseID(u), err
}

// ParseGuestID constructs a GuestID from external input.
func ParseGuestID(s string) (GuestID, error) {
	u, err := parseUUID(s, "guest")
	return GuestID(u), err
}

// ParseServiceID constructs a ServiceID from external input.
func ParseServiceID(s string) (ServiceID, error) {
	u, err := parseUUID(s, "service")
	return ServiceID(u), err
}

// ParseStaffID constructs a StaffID from external input.
func ParseStaffID(s string) (StaffID, error) {
	u, err := parseUUID(s, "staff")
	return StaffID(u), err
}
