// Package service implements the case processing lifecycle controllers:
// step progression, status transition, and non-lifecycle field mutation,
// plus the read paths staff and citizen views consume.
//
// Every operation is a single load-validate-mutate-persist unit of work.
// The only retry the controllers perform is one re-read and re-apply when
// the store reports an optimistic version conflict; a second conflict
// surfaces to the caller as a coded conflict error.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/store"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/catalog"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/metrics"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// Service wires the lifecycle controllers to their ports. It holds no
// per-case state; concurrency control lives at the persistence boundary.
type Service struct {
	store    store.Store
	catalog  catalog.TemplateSource
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(
	st store.Store,
	templates catalog.TemplateSource,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    st,
		catalog:  templates,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("casefile"),
	}
}

// mutate runs one load-apply-save cycle with a single optimistic retry.
// apply must be re-runnable against a fresh snapshot: it sees only the
// aggregate it is given and returns domain errors unmodified.
func (s *Service) mutate(ctx context.Context, caseID id.CaseID, apply func(c *casefile.Case) error) (*casefile.Case, error) {
	for attempt := 0; ; attempt++ {
		c, err := s.load(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if err := apply(c); err != nil {
			return nil, err
		}
		saved, err := s.store.Save(ctx, c)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			if attempt == 0 {
				if s.metrics != nil {
					s.metrics.IncrementConflictRetries()
				}
				s.logger.WarnContext(ctx, "optimistic conflict, retrying once",
					"case_id", caseID.String(),
				)
				continue
			}
			return nil, dErrors.Wrap(dErrors.CodeConflict, "case was modified concurrently", err)
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "case not found", err)
		}
		// Infrastructure failure: propagate unchanged, no retry here.
		return nil, err
	}
}

func (s *Service) load(ctx context.Context, caseID id.CaseID) (*casefile.Case, error) {
	c, err := s.store.Find(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "case not found", err)
		}
		return nil, err
	}
	return c, nil
}

// publish is fire-and-forget: a failed notification never fails the
// staff operation that produced it.
func (s *Service) publish(ctx context.Context, event notify.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "case event publish failed",
			"kind", string(event.Kind),
			"case_code", event.CaseCode,
			"error", err,
		)
	}
}
