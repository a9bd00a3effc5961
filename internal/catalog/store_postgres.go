package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

// PostgresSource reads procedure templates from the service catalog tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) StepsForService(ctx context.Context, serviceID id.ServiceID) ([]ProcedureStepTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_number, step_name, responsible_unit, nominal_processing_minutes, notes
		FROM procedure_step_templates
		WHERE service_id = $1
		ORDER BY step_number
	`, serviceID.String())
	if err != nil {
		return nil, fmt.Errorf("query procedure templates: %w", err)
	}
	defer rows.Close()

	var steps []ProcedureStepTemplate
	for rows.Next() {
		var t ProcedureStepTemplate
		var minutes int64
		if err := rows.Scan(&t.StepNumber, &t.StepName, &t.ResponsibleUnit, &minutes, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan procedure template: %w", err)
		}
		t.NominalProcessingTime = time.Duration(minutes) * time.Minute
		steps = append(steps, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate procedure templates: %w", err)
	}
	if len(steps) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return steps, nil
}
