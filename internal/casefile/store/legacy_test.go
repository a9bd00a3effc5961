package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
)

const legacyWrappedExport = `{
	"$id": "1",
	"$values": [
		{
			"$id": "2",
			"dossierId": "550e8400-e29b-41d4-a716-446655440000",
			"code": "CASE-2025-000917",
			"citizenId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
			"serviceId": "16fd2706-8baf-433b-82eb-8c7fada847da",
			"priority": 1,
			"submissionMethod": "Trực tiếp",
			"status": "Đang xử lý",
			"totalFee": 50000,
			"isPayment": false,
			"notes": "",
			"createdAt": "2025-11-03T08:15:00Z",
			"steps": {
				"$id": "3",
				"$values": [
					{"stepInstanceId": "a6e8b6a0-0000-4000-8000-000000000001", "stepNumber": 1, "stepName": "Tiếp nhận hồ sơ", "isFinished": true},
					{"id": "a6e8b6a0-0000-4000-8000-000000000002", "stepOrder": 2, "name": "Thẩm định", "current": true},
					{"stepInstanceId": "a6e8b6a0-0000-4000-8000-000000000003", "stepNumber": 3, "stepName": "Trả kết quả"}
				]
			},
			"statusHistory": {
				"$id": "4",
				"$values": [
					{"fromStatus": "Đã tiếp nhận", "toStatus": "Đang xử lý", "reason": "chuyển phòng chuyên môn", "note": "", "actor": "b1946ac9-2a9e-4d08-9e2c-000000000001", "timestamp": "2025-11-04T09:00:00Z"}
				]
			},
			"receivedBy": {
				"$id": "5",
				"$values": ["b1946ac9-2a9e-4d08-9e2c-000000000001"]
			}
		}
	]
}`

func TestDecodeCases_WrappedExport(t *testing.T) {
	cases, err := DecodeCases(strings.NewReader(legacyWrappedExport))
	require.NoError(t, err)
	require.Len(t, cases, 1)

	c := cases[0]
	assert.Equal(t, "CASE-2025-000917", c.CaseCode)
	assert.Equal(t, casefile.StatusProcessing, c.CurrentStatus)
	assert.Equal(t, 1, c.PriorityLevel)
	assert.Equal(t, int64(50000), c.TotalFee)

	require.Len(t, c.Steps, 3)
	assert.True(t, c.Steps[0].IsFinished)
	assert.True(t, c.Steps[1].IsCurrent, "heterogeneous step keys normalize to the canonical shape")
	assert.Equal(t, 2, c.Steps[1].StepNumber)
	assert.Equal(t, "Thẩm định", c.Steps[1].StepName)
	assert.NoError(t, c.ValidateSteps())

	require.Len(t, c.StatusHistory, 1)
	assert.Equal(t, casefile.StatusReceived, c.StatusHistory[0].From)
	assert.Equal(t, casefile.StatusProcessing, c.StatusHistory[0].To)
	assert.Equal(t, "chuyển phòng chuyên môn", c.StatusHistory[0].Reason)

	require.Len(t, c.ReceivedBy, 1)
}

func TestDecodeCases_PlainArray(t *testing.T) {
	plain := `[{
		"id": "550e8400-e29b-41d4-a716-446655440001",
		"caseCode": "CASE-2025-000918",
		"guestId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
		"serviceId": "16fd2706-8baf-433b-82eb-8c7fada847da",
		"currentStatus": "received",
		"createdAt": "2025-11-03T08:15:00Z",
		"steps": [{"stepInstanceId": "a6e8b6a0-0000-4000-8000-000000000010", "stepNumber": 1, "stepName": "Receive", "isCurrent": true}]
	}]`

	cases, err := DecodeCases(strings.NewReader(plain))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, casefile.StatusReceived, cases[0].CurrentStatus)
}

func TestDecodeCases_Rejections(t *testing.T) {
	t.Run("unknown status label", func(t *testing.T) {
		bad := `[{
			"id": "550e8400-e29b-41d4-a716-446655440002",
			"caseCode": "CASE-X",
			"guestId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
			"serviceId": "16fd2706-8baf-433b-82eb-8c7fada847da",
			"currentStatus": "mystery",
			"createdAt": "2025-11-03T08:15:00Z"
		}]`
		_, err := DecodeCases(strings.NewReader(bad))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("corrupt step list is rejected not repaired", func(t *testing.T) {
		bad := `[{
			"id": "550e8400-e29b-41d4-a716-446655440003",
			"caseCode": "CASE-Y",
			"guestId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
			"serviceId": "16fd2706-8baf-433b-82eb-8c7fada847da",
			"currentStatus": "received",
			"createdAt": "2025-11-03T08:15:00Z",
			"steps": [
				{"stepNumber": 1, "stepName": "a", "isCurrent": true},
				{"stepNumber": 3, "stepName": "b"}
			]
		}]`
		_, err := DecodeCases(strings.NewReader(bad))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("missing case code", func(t *testing.T) {
		bad := `[{
			"id": "550e8400-e29b-41d4-a716-446655440004",
			"guestId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
			"serviceId": "16fd2706-8baf-433b-82eb-8c7fada847da",
			"currentStatus": "received",
			"createdAt": "2025-11-03T08:15:00Z"
		}]`
		_, err := DecodeCases(strings.NewReader(bad))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
