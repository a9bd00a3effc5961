package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// codeInsertAttempts bounds retries on case-code collisions. Codes carry a
// random six-digit suffix, so a second collision in a row is vanishingly
// unlikely; three attempts is plenty.
const codeInsertAttempts = 3

// OpenParams carries the citizen-supplied intake fields for a new case.
type OpenParams struct {
	GuestID          id.GuestID
	ServiceID        id.ServiceID
	PriorityLevel    int
	SubmissionMethod string
	TotalFee         int64
	IsPayment        bool
}

// Open registers a new case for the given service: the service's procedure
// template is instantiated into owned steps, step 1 becomes current, the
// case starts in StatusReceived, and a unique human-readable case code is
// assigned.
func (s *Service) Open(ctx context.Context, params OpenParams) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Open")
	defer span.End()
	span.SetAttributes(attribute.String("service_id", params.ServiceID.String()))

	if params.GuestID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest id is required")
	}
	if params.ServiceID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "service id is required")
	}
	if params.PriorityLevel < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "priority level cannot be negative")
	}
	if params.TotalFee < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total fee cannot be negative")
	}

	templates, err := s.catalog.StepsForService(ctx, params.ServiceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeInvalidTemplate, "service has no procedure template", err)
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c := &casefile.Case{
		ID:               id.NewCaseID(),
		GuestID:          params.GuestID,
		ServiceID:        params.ServiceID,
		PriorityLevel:    params.PriorityLevel,
		SubmissionMethod: params.SubmissionMethod,
		TotalFee:         params.TotalFee,
		IsPayment:        params.IsPayment,
		CurrentStatus:    casefile.StatusReceived,
		CreatedAt:        now,
	}
	if err := c.InitializeSteps(templates); err != nil {
		return nil, err
	}
	c.RecordReceiver(requestcontext.StaffID(ctx))

	// The six-digit suffix is random rather than sequential, so a collision
	// with an existing code is possible; re-roll and retry the insert.
	for attempt := 0; attempt < codeInsertAttempts; attempt++ {
		c.CaseCode = newCaseCode(now.Year())
		err = s.store.Insert(ctx, c)
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeConflict, "could not assign a unique case code", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementCasesOpened()
	}
	s.logger.InfoContext(ctx, "case opened",
		"case_id", c.ID.String(),
		"case_code", c.CaseCode,
		"service_id", c.ServiceID.String(),
		"steps", len(c.Steps),
	)
	s.publish(ctx, notify.Event{
		Kind:     notify.KindCaseOpened,
		CaseID:   c.ID,
		CaseCode: c.CaseCode,
		Actor:    requestcontext.StaffID(ctx),
	})
	return c, nil
}

// newCaseCode builds a CASE-YYYY-NNNNNN code with a random numeric suffix.
func newCaseCode(year int) string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1_000_000
	return fmt.Sprintf("CASE-%d-%06d", year, n)
}
