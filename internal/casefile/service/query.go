package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/store"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// Snapshot returns the case with its complete derived read state.
func (s *Service) Snapshot(ctx context.Context, caseID id.CaseID) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("case_id", caseID.String()))

	return s.load(ctx, caseID)
}

// SnapshotByCode resolves a case by its human-readable code. This is the
// lookup the citizen-facing tracking flow uses.
func (s *Service) SnapshotByCode(ctx context.Context, caseCode string) (*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.SnapshotByCode")
	defer span.End()
	span.SetAttributes(attribute.String("case_code", caseCode))

	c, err := s.store.FindByCode(ctx, caseCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "case not found", err)
		}
		return nil, err
	}
	return c, nil
}

// Search lists cases matching the staff view's filter, newest first.
func (s *Service) Search(ctx context.Context, filter store.Filter) ([]*casefile.Case, error) {
	ctx, span := s.tracer.Start(ctx, "casefile.Search")
	defer span.End()

	return s.store.Search(ctx, filter)
}
