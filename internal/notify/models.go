package notify

import (
	"time"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// Kind labels what happened to a case.
type Kind string

const (
	KindCaseOpened    Kind = "case_opened"
	KindStepAdvanced  Kind = "step_advanced"
	KindStatusChanged Kind = "status_changed"
	KindCaseUpdated   Kind = "case_updated"
)

// Event is emitted from the lifecycle controllers to capture key actions.
// Keep it transport-agnostic so sinks (kafka, logs, tests) can fan out.
type Event struct {
	Kind     Kind
	CaseID   id.CaseID
	CaseCode string
	Actor    id.StaffID

	// Step fields, set for KindStepAdvanced.
	StepNumber int
	StepName   string

	// Status fields, set for KindStatusChanged.
	FromStatus string
	ToStatus   string
	Reason     string

	Note      string
	Timestamp time.Time
}
