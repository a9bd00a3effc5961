package handler

import (
	"strings"
	"time"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/service"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

const maxNoteLength = 2000

// OpenCaseRequest is the HTTP request body for POST /cases.
type OpenCaseRequest struct {
	GuestID          string `json:"guest_id"`
	ServiceID        string `json:"service_id"`
	PriorityLevel    int    `json:"priority_level"`
	SubmissionMethod string `json:"submission_method"`
	TotalFee         int64  `json:"total_fee"`
	IsPayment        bool   `json:"is_payment"`

	parsedGuestID   id.GuestID
	parsedServiceID id.ServiceID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *OpenCaseRequest) Validate() error {
	guestID, err := id.ParseGuestID(strings.TrimSpace(r.GuestID))
	if err != nil {
		return err
	}
	r.parsedGuestID = guestID

	serviceID, err := id.ParseServiceID(strings.TrimSpace(r.ServiceID))
	if err != nil {
		return err
	}
	r.parsedServiceID = serviceID

	r.SubmissionMethod = strings.TrimSpace(r.SubmissionMethod)
	if r.SubmissionMethod == "" {
		return dErrors.New(dErrors.CodeValidation, "submission_method is required")
	}
	return nil
}

// ToParams builds the service-layer parameters.
func (r *OpenCaseRequest) ToParams() service.OpenParams {
	return service.OpenParams{
		GuestID:          r.parsedGuestID,
		ServiceID:        r.parsedServiceID,
		PriorityLevel:    r.PriorityLevel,
		SubmissionMethod: r.SubmissionMethod,
		TotalFee:         r.TotalFee,
		IsPayment:        r.IsPayment,
	}
}

// AdvanceRequest is the HTTP request body for POST /cases/{caseID}/advance.
type AdvanceRequest struct {
	Note string `json:"note"`
}

func (r *AdvanceRequest) Validate() error {
	if len(r.Note) > maxNoteLength {
		return dErrors.New(dErrors.CodeValidation, "note is too long")
	}
	return nil
}

// TransitionRequest is the HTTP request body for POST /cases/{caseID}/status.
type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Note   string `json:"note"`

	parsedStatus casefile.Status
}

func (r *TransitionRequest) Validate() error {
	status, err := casefile.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	if len(r.Note) > maxNoteLength || len(r.Reason) > maxNoteLength {
		return dErrors.New(dErrors.CodeValidation, "reason or note is too long")
	}
	// Reason presence is a lifecycle rule, enforced by the aggregate so it
	// holds for every caller, not just HTTP.
	return nil
}

// UpdateCaseRequest is the HTTP request body for PATCH /cases/{caseID}.
// Absent fields stay untouched; present fields are applied.
type UpdateCaseRequest struct {
	PriorityLevel           *int    `json:"priority_level"`
	SubmissionMethod        *string `json:"submission_method"`
	TotalFee                *int64  `json:"total_fee"`
	IsPayment               *bool   `json:"is_payment"`
	EstimatedCompletionDate *string `json:"estimated_completion_date"`
	ActualCompletionDate    *string `json:"actual_completion_date"`
	Notes                   *string `json:"notes"`
	ResultDescription       *string `json:"result_description"`

	parsedEstimated *time.Time
	parsedActual    *time.Time
}

func (r *UpdateCaseRequest) Validate() error {
	var err error
	if r.parsedEstimated, err = parseDate(r.EstimatedCompletionDate, "estimated_completion_date"); err != nil {
		return err
	}
	if r.parsedActual, err = parseDate(r.ActualCompletionDate, "actual_completion_date"); err != nil {
		return err
	}
	return nil
}

// ToPatch builds the aggregate-level field patch.
func (r *UpdateCaseRequest) ToPatch() casefile.FieldPatch {
	return casefile.FieldPatch{
		PriorityLevel:           r.PriorityLevel,
		SubmissionMethod:        r.SubmissionMethod,
		TotalFee:                r.TotalFee,
		IsPayment:               r.IsPayment,
		EstimatedCompletionDate: r.parsedEstimated,
		ActualCompletionDate:    r.parsedActual,
		Notes:                   r.Notes,
		ResultDescription:       r.ResultDescription,
	}
}

func parseDate(s *string, field string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be RFC 3339")
	}
	return &t, nil
}
