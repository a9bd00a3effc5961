package casefile

import (
	"time"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

// Status is the case's overall lifecycle state, distinct from step
// completion. Invariant: the value must be one of the supported labels.
//
// Construct via ParseStatus at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Status string

const (
	StatusReceived          Status = "received"
	StatusProcessing        Status = "processing"
	StatusAwaitingPayment   Status = "awaiting_payment"
	StatusCompleted         Status = "completed"
	StatusRejectedByTarget  Status = "rejected_by_target"
	StatusRejectedByManager Status = "rejected_by_manager"
)

// validStatuses is the single source of truth for supported labels.
var validStatuses = map[Status]bool{
	StatusReceived:          true,
	StatusProcessing:        true,
	StatusAwaitingPayment:   true,
	StatusCompleted:         true,
	StatusRejectedByTarget:  true,
	StatusRejectedByManager: true,
}

func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether the status ends processing. Terminal cases are
// never deleted; rejection is a status, not a removal.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejectedByTarget, StatusRejectedByManager:
		return true
	}
	return false
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported status: "+s)
	}
	return st, nil
}

// StatusChange is one append-only audit entry. History entries are never
// mutated after being recorded.
type StatusChange struct {
	From   Status
	To     Status
	Reason string
	Note   string
	Actor  id.StaffID
	At     time.Time
}
