package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// Update applies a partial update to the case's non-lifecycle fields. Fields
// absent from the patch keep their stored values; steps and status are not
// reachable through this operation.
func (s *Service) Update(ctx context.Context, caseID id.CaseID, patch casefile.FieldPatch) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Update")
	defer span.End()
	span.SetAttributes(attribute.String("case_id", caseID.String()))

	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "update carries no fields")
	}

	actor := requestcontext.StaffID(ctx)
	saved, err := s.mutate(ctx, caseID, func(c *casefile.Case) error {
		if err := c.ApplyPatch(patch); err != nil {
			return err
		}
		c.RecordReceiver(actor)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "case updated",
		"case_id", saved.ID.String(),
		"case_code", saved.CaseCode,
		"staff_id", actor.String(),
	)
	s.publish(ctx, notify.Event{
		Kind:     notify.KindCaseUpdated,
		CaseID:   saved.ID,
		CaseCode: saved.CaseCode,
		Actor:    actor,
	})
	return saved, nil
}
