package catalog

import (
	"context"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// TemplateSource resolves the ordered procedure steps defined for a service.
// Implementations must return steps sorted by StepNumber. Unknown services
// surface as sentinel.ErrNotFound (optionally wrapped).
type TemplateSource interface {
	StepsForService(ctx context.Context, serviceID id.ServiceID) ([]ProcedureStepTemplate, error)
}
