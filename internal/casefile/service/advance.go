package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// Advance finishes the case's current procedure step and promotes the next
// one. The optional note is recorded against the step that was finished.
// Status is untouched: a case whose last step finishes still needs an
// explicit completion transition.
func (s *Service) Advance(ctx context.Context, caseID id.CaseID, note string) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Advance")
	defer span.End()
	span.SetAttributes(attribute.String("case_id", caseID.String()))

	actor := requestcontext.StaffID(ctx)
	at := requestcontext.Now(ctx)

	var finished casefile.StepInstance
	saved, err := s.mutate(ctx, caseID, func(c *casefile.Case) error {
		cur, ok := c.CurrentStep()
		if err := c.AdvanceStep(note, actor, at); err != nil {
			return err
		}
		if ok {
			finished = cur
		}
		c.RecordReceiver(actor)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStepsAdvanced()
	}
	s.logger.InfoContext(ctx, "case step advanced",
		"case_id", saved.ID.String(),
		"case_code", saved.CaseCode,
		"finished_step", finished.StepNumber,
		"staff_id", actor.String(),
	)
	s.publish(ctx, notify.Event{
		Kind:       notify.KindStepAdvanced,
		CaseID:     saved.ID,
		CaseCode:   saved.CaseCode,
		Actor:      actor,
		StepNumber: finished.StepNumber,
		StepName:   finished.StepName,
		Note:       note,
	})
	return saved, nil
}
