package casefile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/catalog"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

// Aggregate invariants, checked after every mutation:
//
//   - step numbers form a contiguous strictly increasing sequence from 1
//   - at most one step has IsCurrent=true; none when all are finished
//   - IsFinished implies !IsCurrent
//   - finished steps are a prefix of the step list by StepNumber

// InitializeSteps copies the service's templates into owned step instances.
// Called exactly once when the case is opened: step 1 becomes current, the
// rest start unfinished and not current.
func (c *Case) InitializeSteps(templates []catalog.ProcedureStepTemplate) error {
	if len(c.Steps) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "steps are already initialized")
	}
	if len(templates) == 0 {
		return dErrors.New(dErrors.CodeInvalidTemplate, "service has no procedure steps")
	}
	steps := make([]StepInstance, 0, len(templates))
	for i, tpl := range templates {
		if tpl.StepNumber != i+1 {
			return dErrors.New(dErrors.CodeInvalidTemplate,
				fmt.Sprintf("template steps must be contiguous from 1, got %d at position %d", tpl.StepNumber, i+1))
		}
		steps = append(steps, StepInstance{
			ID:         uuid.New(),
			StepNumber: tpl.StepNumber,
			StepName:   tpl.StepName,
			IsCurrent:  tpl.StepNumber == 1,
			IsFinished: false,
		})
	}
	c.Steps = steps
	return nil
}

// CurrentStep returns the step with IsCurrent=true, or false when every
// step is finished.
func (c *Case) CurrentStep() (StepInstance, bool) {
	for _, s := range c.Steps {
		if s.IsCurrent {
			return s, true
		}
	}
	return StepInstance{}, false
}

// AllStepsFinished reports whether every step instance is finished.
func (c *Case) AllStepsFinished() bool {
	for _, s := range c.Steps {
		if !s.IsFinished {
			return false
		}
	}
	return len(c.Steps) > 0
}

// AdvanceStep finishes the current step and promotes its successor, if one
// exists. Progression past the end is rejected with CodeNoFurtherStep and
// never mutates state. Advancing does not change CurrentStatus; completion
// is a separate, explicit status transition.
func (c *Case) AdvanceStep(note string, actor id.StaffID, at time.Time) error {
	if c.AllStepsFinished() {
		return dErrors.New(dErrors.CodeNoFurtherStep, "all procedure steps are already finished")
	}
	cur := -1
	for i := range c.Steps {
		if c.Steps[i].IsCurrent {
			cur = i
			break
		}
	}
	if cur < 0 {
		// Unreachable through exposed operations; a case with unfinished
		// steps always has a current one.
		return dErrors.New(dErrors.CodeInvariantViolation, "no current step on a case with unfinished steps")
	}

	c.Steps[cur].IsFinished = true
	c.Steps[cur].IsCurrent = false
	if cur+1 < len(c.Steps) {
		c.Steps[cur+1].IsCurrent = true
	}

	c.ProgressNotes = append(c.ProgressNotes, ProgressNote{
		StepNumber: c.Steps[cur].StepNumber,
		Note:       note,
		Actor:      actor,
		At:         at,
	})
	return nil
}

// ApplyTransition changes CurrentStatus and records the change in the
// append-only history. Every transition must carry a reason so an auditor
// can reconstruct why the case moved state.
func (c *Case) ApplyTransition(to Status, reason, note string, actor id.StaffID, at time.Time) (StatusChange, error) {
	if strings.TrimSpace(reason) == "" {
		return StatusChange{}, dErrors.New(dErrors.CodeMissingReason, "a status change requires a reason")
	}
	if !to.IsValid() {
		return StatusChange{}, dErrors.New(dErrors.CodeInvalidInput, "unsupported status: "+string(to))
	}
	if to == StatusCompleted && !c.AllStepsFinished() {
		return StatusChange{}, dErrors.New(dErrors.CodeIllegalTransition,
			"cannot mark a case completed while procedure steps remain unfinished")
	}
	if to == c.CurrentStatus {
		// No-op transitions are rejected rather than silently accepted so
		// the history stays meaningful.
		return StatusChange{}, dErrors.New(dErrors.CodeIllegalTransition,
			"case is already in status "+string(to))
	}

	change := StatusChange{
		From:   c.CurrentStatus,
		To:     to,
		Reason: reason,
		Note:   note,
		Actor:  actor,
		At:     at,
	}
	c.StatusHistory = append(c.StatusHistory, change)
	c.CurrentStatus = to
	return change, nil
}

// ApplyPatch applies a partial field update. Absent (nil) fields are left
// untouched, never reset. Steps and CurrentStatus are structurally out of
// the patch's reach.
func (c *Case) ApplyPatch(patch FieldPatch) error {
	if patch.ActualCompletionDate != nil && patch.ActualCompletionDate.Before(c.CreatedAt) {
		return dErrors.New(dErrors.CodeValidation, "actual completion date precedes case creation")
	}
	if patch.PriorityLevel != nil {
		if *patch.PriorityLevel < 0 {
			return dErrors.New(dErrors.CodeValidation, "priority level cannot be negative")
		}
		c.PriorityLevel = *patch.PriorityLevel
	}
	if patch.SubmissionMethod != nil {
		c.SubmissionMethod = *patch.SubmissionMethod
	}
	if patch.TotalFee != nil {
		if *patch.TotalFee < 0 {
			return dErrors.New(dErrors.CodeValidation, "total fee cannot be negative")
		}
		c.TotalFee = *patch.TotalFee
	}
	if patch.IsPayment != nil {
		c.IsPayment = *patch.IsPayment
	}
	if patch.EstimatedCompletionDate != nil {
		t := *patch.EstimatedCompletionDate
		c.EstimatedCompletionDate = &t
	}
	if patch.ActualCompletionDate != nil {
		t := *patch.ActualCompletionDate
		c.ActualCompletionDate = &t
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.ResultDescription != nil {
		c.ResultDescription = *patch.ResultDescription
	}
	return nil
}

// ValidateSteps re-checks the step invariants. Stores call this when
// normalizing external data so corrupt wire payloads never become a live
// aggregate.
func (c *Case) ValidateSteps() error {
	currents := 0
	firstUnfinished := -1
	for i, s := range c.Steps {
		if s.StepNumber != i+1 {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("step numbers must be contiguous from 1, got %d at position %d", s.StepNumber, i+1))
		}
		if s.IsCurrent {
			currents++
			if s.IsFinished {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("step %d is both finished and current", s.StepNumber))
			}
			// A step may only be current when every lower-numbered step
			// is finished.
			if firstUnfinished >= 0 {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("step %d is current but step %d is unfinished", s.StepNumber, firstUnfinished+1))
			}
		}
		if s.IsFinished {
			if firstUnfinished >= 0 {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("finished step %d follows an unfinished step", s.StepNumber))
			}
		} else if firstUnfinished < 0 {
			firstUnfinished = i
		}
	}
	if currents > 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "more than one step is current")
	}
	return nil
}
