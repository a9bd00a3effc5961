package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// Transition moves the case to a new status. The reason is mandatory and is
// recorded, together with the optional note and the acting operator, in the
// append-only status history.
func (s *Service) Transition(ctx context.Context, caseID id.CaseID, to casefile.Status, reason, note string) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("case_id", caseID.String()),
		attribute.String("to_status", string(to)),
	)

	actor := requestcontext.StaffID(ctx)
	at := requestcontext.Now(ctx)

	var change casefile.StatusChange
	saved, err := s.mutate(ctx, caseID, func(c *casefile.Case) error {
		ch, err := c.ApplyTransition(to, reason, note, actor, at)
		if err != nil {
			return err
		}
		change = ch
		c.RecordReceiver(actor)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStatusTransition(string(change.To))
	}
	s.logger.InfoContext(ctx, "case status changed",
		"case_id", saved.ID.String(),
		"case_code", saved.CaseCode,
		"from", string(change.From),
		"to", string(change.To),
		"staff_id", actor.String(),
	)
	s.publish(ctx, notify.Event{
		Kind:       notify.KindStatusChanged,
		CaseID:     saved.ID,
		CaseCode:   saved.CaseCode,
		Actor:      actor,
		FromStatus: string(change.From),
		ToStatus:   string(change.To),
		Reason:     change.Reason,
		Note:       note,
	})
	return saved, nil
}
