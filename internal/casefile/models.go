package casefile

import (
	"time"

	"github.com/google/uuid"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// StepInstance is one ordered stage of a case's procedure, copied from the
// service catalog template when the case is opened. Instances are owned
// exclusively by their case; they live and die with it.
type StepInstance struct {
	ID         uuid.UUID
	StepNumber int
	StepName   string
	IsCurrent  bool
	IsFinished bool
}

// ProgressNote is an audit line appended when a step is advanced. It is
// separate from the staff-editable free-text Notes field so mechanical
// progression never clobbers operator commentary.
type ProgressNote struct {
	StepNumber int
	Note       string
	Actor      id.StaffID
	At         time.Time
}

// Case is the aggregate root for one citizen's administrative-service
// request. All lifecycle mutations go through the aggregate methods in
// lifecycle.go so the step/status invariants hold after every change.
type Case struct {
	ID               id.CaseID
	CaseCode         string // human-readable, unique, immutable
	GuestID          id.GuestID
	ServiceID        id.ServiceID
	PriorityLevel    int // 0 = normal, higher = more urgent
	SubmissionMethod string

	Steps         []StepInstance
	ProgressNotes []ProgressNote

	CurrentStatus Status
	StatusHistory []StatusChange

	TotalFee  int64 // minor currency units
	IsPayment bool

	EstimatedCompletionDate *time.Time
	ActualCompletionDate    *time.Time

	Notes             string
	ResultDescription string

	ReceivedBy []id.StaffID // staff who have touched the case, set semantics

	CreatedAt time.Time

	// Version is the optimistic-concurrency token. Stores increment it on
	// every successful save and reject saves whose version is stale.
	Version int64
}

// Clone returns a deep copy so stores can hand out snapshots that callers
// may mutate freely.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Steps = append([]StepInstance(nil), c.Steps...)
	out.ProgressNotes = append([]ProgressNote(nil), c.ProgressNotes...)
	out.StatusHistory = append([]StatusChange(nil), c.StatusHistory...)
	out.ReceivedBy = append([]id.StaffID(nil), c.ReceivedBy...)
	if c.EstimatedCompletionDate != nil {
		t := *c.EstimatedCompletionDate
		out.EstimatedCompletionDate = &t
	}
	if c.ActualCompletionDate != nil {
		t := *c.ActualCompletionDate
		out.ActualCompletionDate = &t
	}
	return &out
}

// RecordReceiver adds the staff member to ReceivedBy if not already present.
func (c *Case) RecordReceiver(staffID id.StaffID) {
	if staffID.IsZero() {
		return
	}
	for _, existing := range c.ReceivedBy {
		if existing == staffID {
			return
		}
	}
	c.ReceivedBy = append(c.ReceivedBy, staffID)
}

// FieldPatch carries a partial update for non-lifecycle fields. Nil pointers
// mean "leave untouched"; the patch can never reach Steps or CurrentStatus.
type FieldPatch struct {
	PriorityLevel           *int
	SubmissionMethod        *string
	TotalFee                *int64
	IsPayment               *bool
	EstimatedCompletionDate *time.Time
	ActualCompletionDate    *time.Time
	Notes                   *string
	ResultDescription       *string
}

// IsEmpty reports whether the patch carries no changes.
func (p FieldPatch) IsEmpty() bool {
	return p.PriorityLevel == nil &&
		p.SubmissionMethod == nil &&
		p.TotalFee == nil &&
		p.IsPayment == nil &&
		p.EstimatedCompletionDate == nil &&
		p.ActualCompletionDate == nil &&
		p.Notes == nil &&
		p.ResultDescription == nil
}
