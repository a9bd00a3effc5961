package casefile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/catalog"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

func threeStepTemplates() []catalog.ProcedureStepTemplate {
	return []catalog.ProcedureStepTemplate{
		{StepNumber: 1, StepName: "Receive dossier", ResponsibleUnit: "Front desk"},
		{StepNumber: 2, StepName: "Review", ResponsibleUnit: "Department"},
		{StepNumber: 3, StepName: "Return result", ResponsibleUnit: "Front desk"},
	}
}

func newTestCase(t *testing.T) *Case {
	t.Helper()
	c := &Case{
		ID:            id.NewCaseID(),
		CaseCode:      "CASE-2026-000042",
		CurrentStatus: StatusReceived,
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.InitializeSteps(threeStepTemplates()))
	return c
}

func TestInitializeSteps(t *testing.T) {
	t.Run("copies templates with step 1 current", func(t *testing.T) {
		c := newTestCase(t)
		require.Len(t, c.Steps, 3)
		assert.True(t, c.Steps[0].IsCurrent)
		for i, s := range c.Steps {
			assert.Equal(t, i+1, s.StepNumber)
			assert.False(t, s.IsFinished)
			assert.NotEqual(t, uuid.Nil, s.ID)
			if i > 0 {
				assert.False(t, s.IsCurrent)
			}
		}
		assert.NoError(t, c.ValidateSteps())
	})

	t.Run("rejects empty template list", func(t *testing.T) {
		c := &Case{}
		err := c.InitializeSteps(nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTemplate))
	})

	t.Run("rejects non-contiguous templates", func(t *testing.T) {
		c := &Case{}
		err := c.InitializeSteps([]catalog.ProcedureStepTemplate{
			{StepNumber: 1, StepName: "a"},
			{StepNumber: 3, StepName: "b"},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTemplate))
	})

	t.Run("rejects templates not starting at 1", func(t *testing.T) {
		c := &Case{}
		err := c.InitializeSteps([]catalog.ProcedureStepTemplate{{StepNumber: 2, StepName: "a"}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTemplate))
	})

	t.Run("rejects double initialization", func(t *testing.T) {
		c := newTestCase(t)
		err := c.InitializeSteps(threeStepTemplates())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestAdvanceStep(t *testing.T) {
	actor := id.StaffID(uuid.New())
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("walks a three step case to the end", func(t *testing.T) {
		c := newTestCase(t)

		require.NoError(t, c.AdvanceStep("received and checked", actor, now))
		assert.True(t, c.Steps[0].IsFinished)
		assert.False(t, c.Steps[0].IsCurrent)
		assert.True(t, c.Steps[1].IsCurrent)
		assert.False(t, c.AllStepsFinished())
		assert.NoError(t, c.ValidateSteps())

		require.NoError(t, c.AdvanceStep("reviewed", actor, now))
		require.NoError(t, c.AdvanceStep("result returned", actor, now))

		assert.True(t, c.AllStepsFinished())
		_, ok := c.CurrentStep()
		assert.False(t, ok, "no step should be current once all are finished")
		assert.NoError(t, c.ValidateSteps())
		assert.Len(t, c.ProgressNotes, 3)
	})

	t.Run("at most one step is current throughout", func(t *testing.T) {
		c := newTestCase(t)
		for !c.AllStepsFinished() {
			currents := 0
			for _, s := range c.Steps {
				if s.IsCurrent {
					currents++
				}
			}
			assert.Equal(t, 1, currents)
			require.NoError(t, c.AdvanceStep("", actor, now))
		}
	})

	t.Run("advancing past the end fails and leaves state untouched", func(t *testing.T) {
		c := newTestCase(t)
		require.NoError(t, c.AdvanceStep("", actor, now))
		require.NoError(t, c.AdvanceStep("", actor, now))
		require.NoError(t, c.AdvanceStep("", actor, now))

		before := c.Clone()
		err := c.AdvanceStep("too far", actor, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoFurtherStep))
		assert.Equal(t, before.Steps, c.Steps)
		assert.Equal(t, before.ProgressNotes, c.ProgressNotes)
	})

	t.Run("advance never changes status", func(t *testing.T) {
		c := newTestCase(t)
		require.NoError(t, c.AdvanceStep("", actor, now))
		assert.Equal(t, StatusReceived, c.CurrentStatus)
		assert.Empty(t, c.StatusHistory)
	})
}

func TestApplyTransition(t *testing.T) {
	actor := id.StaffID(uuid.New())
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("records history and sets status", func(t *testing.T) {
		c := newTestCase(t)
		change, err := c.ApplyTransition(StatusProcessing, "intake complete", "assigned to dept", actor, now)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, c.CurrentStatus)
		require.Len(t, c.StatusHistory, 1)
		assert.Equal(t, change, c.StatusHistory[0])
		assert.Equal(t, StatusReceived, change.From)
		assert.Equal(t, StatusProcessing, change.To)
		assert.Equal(t, "intake complete", change.Reason)
		assert.Equal(t, actor, change.Actor)
	})

	t.Run("empty reason is rejected without side effects", func(t *testing.T) {
		c := newTestCase(t)
		_, err := c.ApplyTransition(StatusProcessing, "   ", "", actor, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingReason))
		assert.Equal(t, StatusReceived, c.CurrentStatus)
		assert.Empty(t, c.StatusHistory)
	})

	t.Run("completed requires all steps finished", func(t *testing.T) {
		c := newTestCase(t)
		_, err := c.ApplyTransition(StatusCompleted, "early", "", actor, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))

		require.NoError(t, c.AdvanceStep("", actor, now))
		_, err = c.ApplyTransition(StatusCompleted, "still early", "", actor, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))

		require.NoError(t, c.AdvanceStep("", actor, now))
		require.NoError(t, c.AdvanceStep("", actor, now))
		_, err = c.ApplyTransition(StatusCompleted, "done", "", actor, now)
		assert.NoError(t, err)
		assert.Equal(t, StatusCompleted, c.CurrentStatus)
	})

	t.Run("no-op transition is rejected", func(t *testing.T) {
		c := newTestCase(t)
		_, err := c.ApplyTransition(StatusReceived, "same again", "", actor, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))
		assert.Empty(t, c.StatusHistory)
	})

	t.Run("rejection does not require finished steps", func(t *testing.T) {
		c := newTestCase(t)
		_, err := c.ApplyTransition(StatusRejectedByManager, "incomplete dossier", "missing form 3", actor, now)
		require.NoError(t, err)
		assert.Equal(t, StatusRejectedByManager, c.CurrentStatus)
	})
}

func TestApplyPatch(t *testing.T) {
	t.Run("applies only present fields", func(t *testing.T) {
		c := newTestCase(t)
		stepsBefore := append([]StepInstance(nil), c.Steps...)
		statusBefore := c.CurrentStatus

		fee := int64(150_000)
		require.NoError(t, c.ApplyPatch(FieldPatch{TotalFee: &fee}))

		assert.Equal(t, fee, c.TotalFee)
		assert.Equal(t, stepsBefore, c.Steps)
		assert.Equal(t, statusBefore, c.CurrentStatus)
		assert.Empty(t, c.Notes)
		assert.Nil(t, c.ActualCompletionDate)
	})

	t.Run("rejects completion date before creation", func(t *testing.T) {
		c := newTestCase(t)
		early := c.CreatedAt.Add(-24 * time.Hour)
		err := c.ApplyPatch(FieldPatch{ActualCompletionDate: &early})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Nil(t, c.ActualCompletionDate)
	})

	t.Run("rejects negative fee and priority", func(t *testing.T) {
		c := newTestCase(t)
		bad := int64(-1)
		err := c.ApplyPatch(FieldPatch{TotalFee: &bad})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		neg := -2
		err = c.ApplyPatch(FieldPatch{PriorityLevel: &neg})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestValidateSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []StepInstance
		ok    bool
	}{
		{"fresh case", []StepInstance{
			{StepNumber: 1, IsCurrent: true},
			{StepNumber: 2},
		}, true},
		{"all finished", []StepInstance{
			{StepNumber: 1, IsFinished: true},
			{StepNumber: 2, IsFinished: true},
		}, true},
		{"gap in numbering", []StepInstance{
			{StepNumber: 1, IsCurrent: true},
			{StepNumber: 3},
		}, false},
		{"two current steps", []StepInstance{
			{StepNumber: 1, IsCurrent: true},
			{StepNumber: 2, IsCurrent: true},
		}, false},
		{"finished and current", []StepInstance{
			{StepNumber: 1, IsCurrent: true, IsFinished: true},
		}, false},
		{"finished after unfinished", []StepInstance{
			{StepNumber: 1},
			{StepNumber: 2, IsFinished: true},
		}, false},
		{"current after unfinished", []StepInstance{
			{StepNumber: 1},
			{StepNumber: 2, IsCurrent: true},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Case{Steps: tt.steps}
			err := c.ValidateSteps()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			}
		})
	}
}

func TestRecordReceiver(t *testing.T) {
	c := newTestCase(t)
	a := id.StaffID(uuid.New())
	b := id.StaffID(uuid.New())

	c.RecordReceiver(a)
	c.RecordReceiver(b)
	c.RecordReceiver(a) // duplicate ignored
	c.RecordReceiver(id.StaffID{})

	assert.Equal(t, []id.StaffID{a, b}, c.ReceivedBy)
}

func TestParseStatus(t *testing.T) {
	t.Run("accepts known labels", func(t *testing.T) {
		for s := range validStatuses {
			got, err := ParseStatus(string(s))
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	})

	t.Run("rejects empty and unknown", func(t *testing.T) {
		for _, in := range []string{"", "done", "HOAN_THANH"} {
			_, err := ParseStatus(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}
