package handler

import (
	"time"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// CaseResponse is the full case representation returned to staff.
type CaseResponse struct {
	ID               string `json:"id"`
	CaseCode         string `json:"case_code"`
	GuestID          string `json:"guest_id"`
	ServiceID        string `json:"service_id"`
	PriorityLevel    int    `json:"priority_level"`
	SubmissionMethod string `json:"submission_method"`

	Status           string        `json:"status"`
	Terminal         bool          `json:"terminal"`
	CurrentStep      *StepResponse `json:"current_step,omitempty"`
	AllStepsFinished bool          `json:"all_steps_finished"`

	Steps         []StepResponse         `json:"steps"`
	ProgressNotes []ProgressNoteResponse `json:"progress_notes"`
	StatusHistory []StatusChangeResponse `json:"status_history"`

	TotalFee  int64 `json:"total_fee"`
	IsPayment bool  `json:"is_payment"`

	EstimatedCompletionDate *time.Time `json:"estimated_completion_date,omitempty"`
	ActualCompletionDate    *time.Time `json:"actual_completion_date,omitempty"`

	Notes             string   `json:"notes,omitempty"`
	ResultDescription string   `json:"result_description,omitempty"`
	ReceivedBy        []string `json:"received_by"`

	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"version"`
}

// StepResponse is one procedure step of a case.
type StepResponse struct {
	StepNumber int    `json:"step_number"`
	StepName   string `json:"step_name"`
	IsCurrent  bool   `json:"is_current"`
	IsFinished bool   `json:"is_finished"`
}

// ProgressNoteResponse is one step-advance audit line.
type ProgressNoteResponse struct {
	StepNumber int       `json:"step_number"`
	Note       string    `json:"note,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	At         time.Time `json:"at"`
}

// StatusChangeResponse is one status history entry.
type StatusChangeResponse struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
	Note   string    `json:"note,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// CaseListResponse wraps a search result.
type CaseListResponse struct {
	Cases []CaseSummaryResponse `json:"cases"`
	Count int                   `json:"count"`
}

// CaseSummaryResponse is the compact list-view shape.
type CaseSummaryResponse struct {
	ID            string    `json:"id"`
	CaseCode      string    `json:"case_code"`
	GuestID       string    `json:"guest_id"`
	Status        string    `json:"status"`
	PriorityLevel int       `json:"priority_level"`
	CurrentStep   int       `json:"current_step,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromCase converts the aggregate into the full response shape.
func FromCase(c *casefile.Case) *CaseResponse {
	resp := &CaseResponse{
		ID:               c.ID.String(),
		CaseCode:         c.CaseCode,
		GuestID:          c.GuestID.String(),
		ServiceID:        c.ServiceID.String(),
		PriorityLevel:    c.PriorityLevel,
		SubmissionMethod: c.SubmissionMethod,
		Status:           string(c.CurrentStatus),
		Terminal:         c.CurrentStatus.IsTerminal(),
		AllStepsFinished: c.AllStepsFinished(),
		TotalFee:         c.TotalFee,
		IsPayment:        c.IsPayment,

		EstimatedCompletionDate: c.EstimatedCompletionDate,
		ActualCompletionDate:    c.ActualCompletionDate,

		Notes:             c.Notes,
		ResultDescription: c.ResultDescription,

		CreatedAt: c.CreatedAt,
		Version:   c.Version,

		Steps:         make([]StepResponse, 0, len(c.Steps)),
		ProgressNotes: make([]ProgressNoteResponse, 0, len(c.ProgressNotes)),
		StatusHistory: make([]StatusChangeResponse, 0, len(c.StatusHistory)),
		ReceivedBy:    make([]string, 0, len(c.ReceivedBy)),
	}
	for _, s := range c.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			StepNumber: s.StepNumber,
			StepName:   s.StepName,
			IsCurrent:  s.IsCurrent,
			IsFinished: s.IsFinished,
		})
	}
	if cur, ok := c.CurrentStep(); ok {
		resp.CurrentStep = &StepResponse{
			StepNumber: cur.StepNumber,
			StepName:   cur.StepName,
			IsCurrent:  true,
		}
	}
	for _, n := range c.ProgressNotes {
		resp.ProgressNotes = append(resp.ProgressNotes, ProgressNoteResponse{
			StepNumber: n.StepNumber,
			Note:       n.Note,
			Actor:      actorString(n.Actor),
			At:         n.At,
		})
	}
	for _, h := range c.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, StatusChangeResponse{
			From:   string(h.From),
			To:     string(h.To),
			Reason: h.Reason,
			Note:   h.Note,
			Actor:  actorString(h.Actor),
			At:     h.At,
		})
	}
	for _, staffID := range c.ReceivedBy {
		resp.ReceivedBy = append(resp.ReceivedBy, staffID.String())
	}
	return resp
}

// FromCases converts a search result into the list shape.
func FromCases(cases []*casefile.Case) *CaseListResponse {
	out := &CaseListResponse{Cases: make([]CaseSummaryResponse, 0, len(cases))}
	for _, c := range cases {
		summary := CaseSummaryResponse{
			ID:            c.ID.String(),
			CaseCode:      c.CaseCode,
			GuestID:       c.GuestID.String(),
			Status:        string(c.CurrentStatus),
			PriorityLevel: c.PriorityLevel,
			CreatedAt:     c.CreatedAt,
		}
		if cur, ok := c.CurrentStep(); ok {
			summary.CurrentStep = cur.StepNumber
		}
		out.Cases = append(out.Cases, summary)
	}
	out.Count = len(out.Cases)
	return out
}

func actorString(staffID id.StaffID) string {
	if staffID.IsZero() {
		return ""
	}
	return staffID.String()
}
