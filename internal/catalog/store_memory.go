package catalog

import (
	"context"
	"sort"
	"sync"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// InMemorySource keeps procedure templates in process memory. Used in tests
// and local development; production wires the postgres source.
type InMemorySource struct {
	mu        sync.RWMutex
	templates map[id.ServiceID][]ProcedureStepTemplate
}

func NewInMemorySource() *InMemorySource {
	return &InMemorySource{templates: make(map[id.ServiceID][]ProcedureStepTemplate)}
}

// Register installs the template list for a service, replacing any previous
// registration.
func (s *InMemorySource) Register(serviceID id.ServiceID, steps []ProcedureStepTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := append([]ProcedureStepTemplate{}, steps...)
	sort.Slice(copied, func(i, j int) bool { return copied[i].StepNumber < copied[j].StepNumber })
	s.templates[serviceID] = copied
}

func (s *InMemorySource) StepsForService(_ context.Context, serviceID id.ServiceID) ([]ProcedureStepTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps, ok := s.templates[serviceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]ProcedureStepTemplate{}, steps...), nil
}
