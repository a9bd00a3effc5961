package store

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

// Legacy export decoding.
//
// The previous portal backend serialized responses with the ASP.NET
// reference-preserving JSON shape: collections arrive wrapped as
// {"$id": "1", "$values": [...]} and several fields appear under more than
// one key depending on which endpoint produced the export. This adapter
// normalizes that wire format into the canonical Case aggregate so nothing
// past the persistence boundary ever sees it.

// valuesList accepts both a plain JSON array and the $values-wrapped form.
type valuesList[T any] struct {
	Items []T
}

func (l *valuesList[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.Items)
	}
	var wrapped struct {
		Values []T `json:"$values"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	l.Items = wrapped.Values
	return nil
}

type legacyStep struct {
	StepInstanceID string `json:"stepInstanceId"`
	ID             string `json:"id"`
	StepNumber     int    `json:"stepNumber"`
	StepOrder      int    `json:"stepOrder"`
	StepName       string `json:"stepName"`
	Name           string `json:"name"`
	IsCurrent      bool   `json:"isCurrent"`
	Current        bool   `json:"current"`
	IsFinished     bool   `json:"isFinished"`
	Finished       bool   `json:"finished"`
}

type legacyHistory struct {
	FromStatus string     `json:"fromStatus"`
	ToStatus   string     `json:"toStatus"`
	Reason     string     `json:"reason"`
	Note       string     `json:"note"`
	Actor      string     `json:"actor"`
	Timestamp  *time.Time `json:"timestamp"`
	CreatedAt  *time.Time `json:"createdAt"`
}

type legacyCase struct {
	ID               string                    `json:"id"`
	DossierID        string                    `json:"dossierId"`
	CaseCode         string                    `json:"caseCode"`
	Code             string                    `json:"code"`
	GuestID          string                    `json:"guestId"`
	CitizenID        string                    `json:"citizenId"`
	ServiceID        string                    `json:"serviceId"`
	PriorityLevel    *int                      `json:"priorityLevel"`
	Priority         *int                      `json:"priority"`
	SubmissionMethod string                    `json:"submissionMethod"`
	Steps            valuesList[legacyStep]    `json:"steps"`
	CurrentStatus    string                    `json:"currentStatus"`
	Status           string                    `json:"status"`
	StatusHistory    valuesList[legacyHistory] `json:"statusHistory"`
	TotalFee         int64                     `json:"totalFee"`
	IsPayment        bool                      `json:"isPayment"`
	EstimatedDate    *time.Time                `json:"estimatedCompletionDate"`
	ActualDate       *time.Time                `json:"actualCompletionDate"`
	Notes            string                    `json:"notes"`
	ResultDesc       string                    `json:"resultDescription"`
	ReceivedBy       valuesList[string]        `json:"receivedBy"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// legacyStatusLabels maps the portal's display labels onto canonical
// statuses. Canonical labels pass through unchanged.
var legacyStatusLabels = map[string]casefile.Status{
	"Đã tiếp nhận":   casefile.StatusReceived,
	"Đang xử lý":     casefile.StatusProcessing,
	"Chờ thanh toán": casefile.StatusAwaitingPayment,
	"Hoàn thành":     casefile.StatusCompleted,
	"Bị từ chối":     casefile.StatusRejectedByTarget,
	"Lãnh đạo từ chối": casefile.StatusRejectedByManager,
}

func normalizeStatus(raw string) (casefile.Status, error) {
	if mapped, ok := legacyStatusLabels[raw]; ok {
		return mapped, nil
	}
	return casefile.ParseStatus(raw)
}

// DecodeCases normalizes a legacy export stream into case aggregates. The
// export is either a plain array of cases or the $values-wrapped form.
// Aggregates failing the step invariants are rejected, not repaired.
func DecodeCases(r io.Reader) ([]*casefile.Case, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read legacy export: %w", err)
	}
	var list valuesList[legacyCase]
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode legacy export: %w", err)
	}

	out := make([]*casefile.Case, 0, len(list.Items))
	for i, lc := range list.Items {
		c, err := normalizeCase(lc)
		if err != nil {
			return nil, fmt.Errorf("legacy case %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func normalizeCase(lc legacyCase) (*casefile.Case, error) {
	caseID, err := id.ParseCaseID(firstNonEmpty(lc.ID, lc.DossierID))
	if err != nil {
		return nil, err
	}
	guestID, err := id.ParseGuestID(firstNonEmpty(lc.GuestID, lc.CitizenID))
	if err != nil {
		return nil, err
	}
	serviceID, err := id.ParseServiceID(lc.ServiceID)
	if err != nil {
		return nil, err
	}
	code := firstNonEmpty(lc.CaseCode, lc.Code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "legacy case has no case code")
	}
	status, err := normalizeStatus(firstNonEmpty(lc.CurrentStatus, lc.Status))
	if err != nil {
		return nil, err
	}

	c := &casefile.Case{
		ID:                      caseID,
		CaseCode:                code,
		GuestID:                 guestID,
		ServiceID:               serviceID,
		SubmissionMethod:        lc.SubmissionMethod,
		CurrentStatus:           status,
		TotalFee:                lc.TotalFee,
		IsPayment:               lc.IsPayment,
		EstimatedCompletionDate: lc.EstimatedDate,
		ActualCompletionDate:    lc.ActualDate,
		Notes:                   lc.Notes,
		ResultDescription:       lc.ResultDesc,
		CreatedAt:               lc.CreatedAt,
	}
	if lc.PriorityLevel != nil {
		c.PriorityLevel = *lc.PriorityLevel
	} else if lc.Priority != nil {
		c.PriorityLevel = *lc.Priority
	}

	for _, ls := range lc.Steps.Items {
		step := casefile.StepInstance{
			StepNumber: ls.StepNumber,
			StepName:   firstNonEmpty(ls.StepName, ls.Name),
			IsCurrent:  ls.IsCurrent || ls.Current,
			IsFinished: ls.IsFinished || ls.Finished,
		}
		if step.StepNumber == 0 {
			step.StepNumber = ls.StepOrder
		}
		rawID := firstNonEmpty(ls.StepInstanceID, ls.ID)
		if u, err := uuid.Parse(rawID); err == nil {
			step.ID = u
		} else {
			step.ID = uuid.New()
		}
		c.Steps = append(c.Steps, step)
	}
	if err := c.ValidateSteps(); err != nil {
		return nil, err
	}

	for _, lh := range lc.StatusHistory.Items {
		from, err := normalizeStatus(lh.FromStatus)
		if err != nil {
			return nil, err
		}
		to, err := normalizeStatus(lh.ToStatus)
		if err != nil {
			return nil, err
		}
		change := casefile.StatusChange{From: from, To: to, Reason: lh.Reason, Note: lh.Note}
		if u, err := uuid.Parse(lh.Actor); err == nil {
			change.Actor = id.StaffID(u)
		}
		if lh.Timestamp != nil {
			change.At = *lh.Timestamp
		} else if lh.CreatedAt != nil {
			change.At = *lh.CreatedAt
		}
		c.StatusHistory = append(c.StatusHistory, change)
	}

	for _, raw := range lc.ReceivedBy.Items {
		if staffID, err := id.ParseStaffID(raw); err == nil {
			c.RecordReceiver(staffID)
		}
	}
	return c, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
