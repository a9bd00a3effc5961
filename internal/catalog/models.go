package catalog

import "time"

// ProcedureStepTemplate is one ordered stage of a service's fixed workflow.
// Templates are owned by the service catalog and immutable; cases copy them
// into their own step instances at creation time.
type ProcedureStepTemplate struct {
	StepNumber            int
	StepName              string
	ResponsibleUnit       string
	NominalProcessingTime time.Duration
	Notes                 string
}
