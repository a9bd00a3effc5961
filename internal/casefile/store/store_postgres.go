package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists case aggregates in PostgreSQL. The aggregate spans
// four tables (cases, case_steps, case_status_history, case_progress_notes);
// every save rewrites the child rows inside one transaction so a case is
// always read back in a consistent state.
//
// Optimistic concurrency: saves bump the version column guarded by a
// version-checked UPDATE. A stale version surfaces as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the ambient transaction when one is carried in ctx, otherwise
// the pooled connection.
func (s *PostgresStore) q(ctx context.Context) dbtx {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, c *casefile.Case) error {
	return s.inTx(ctx, func(q dbtx) error {
		c.Version = 1
		_, err := q.ExecContext(ctx, `
			INSERT INTO cases (
				id, case_code, guest_id, service_id, priority_level, submission_method,
				current_status, total_fee, is_payment,
				estimated_completion_date, actual_completion_date,
				notes, result_description, received_by, created_at, version
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`,
			c.ID.String(), c.CaseCode, c.GuestID.String(), c.ServiceID.String(),
			c.PriorityLevel, c.SubmissionMethod, string(c.CurrentStatus),
			c.TotalFee, c.IsPayment,
			c.EstimatedCompletionDate, c.ActualCompletionDate,
			c.Notes, c.ResultDescription, pq.Array(staffIDStrings(c.ReceivedBy)),
			c.CreatedAt, c.Version,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("case %s: %w", c.CaseCode, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert case: %w", err)
		}
		return s.writeChildren(ctx, q, c)
	})
}

func (s *PostgresStore) Save(ctx context.Context, c *casefile.Case) (*casefile.Case, error) {
	var saved *casefile.Case
	err := s.inTx(ctx, func(q dbtx) error {
		res, err := q.ExecContext(ctx, `
			UPDATE cases SET
				priority_level = $2, submission_method = $3, current_status = $4,
				total_fee = $5, is_payment = $6,
				estimated_completion_date = $7, actual_completion_date = $8,
				notes = $9, result_description = $10, received_by = $11,
				version = version + 1
			WHERE id = $1 AND version = $12
		`,
			c.ID.String(), c.PriorityLevel, c.SubmissionMethod, string(c.CurrentStatus),
			c.TotalFee, c.IsPayment,
			c.EstimatedCompletionDate, c.ActualCompletionDate,
			c.Notes, c.ResultDescription, pq.Array(staffIDStrings(c.ReceivedBy)),
			c.Version,
		)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if affected == 0 {
			var exists bool
			if err := q.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, c.ID.String(),
			).Scan(&exists); err != nil {
				return fmt.Errorf("check case existence: %w", err)
			}
			if !exists {
				return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrNotFound)
			}
			return fmt.Errorf("case %s version %d is stale: %w", c.ID, c.Version, sentinel.ErrConflict)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM case_steps WHERE case_id = $1`, c.ID.String()); err != nil {
			return fmt.Errorf("clear case steps: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM case_status_history WHERE case_id = $1`, c.ID.String()); err != nil {
			return fmt.Errorf("clear status history: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM case_progress_notes WHERE case_id = $1`, c.ID.String()); err != nil {
			return fmt.Errorf("clear progress notes: %w", err)
		}
		if err := s.writeChildren(ctx, q, c); err != nil {
			return err
		}
		saved = c.Clone()
		saved.Version = c.Version + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *PostgresStore) writeChildren(ctx context.Context, q dbtx, c *casefile.Case) error {
	for _, step := range c.Steps {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO case_steps (id, case_id, step_number, step_name, is_current, is_finished)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, step.ID.String(), c.ID.String(), step.StepNumber, step.StepName, step.IsCurrent, step.IsFinished); err != nil {
			return fmt.Errorf("insert case step %d: %w", step.StepNumber, err)
		}
	}
	for i, change := range c.StatusHistory {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO case_status_history (case_id, seq, from_status, to_status, reason, note, actor, at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, c.ID.String(), i, string(change.From), string(change.To),
			change.Reason, change.Note, change.Actor.String(), change.At); err != nil {
			return fmt.Errorf("insert status history %d: %w", i, err)
		}
	}
	for i, note := range c.ProgressNotes {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO case_progress_notes (case_id, seq, step_number, note, actor, at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, c.ID.String(), i, note.StepNumber, note.Note, note.Actor.String(), note.At); err != nil {
			return fmt.Errorf("insert progress note %d: %w", i, err)
		}
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, caseID id.CaseID) (*casefile.Case, error) {
	return s.findWhere(ctx, `id = $1`, caseID.String())
}

func (s *PostgresStore) FindByCode(ctx context.Context, caseCode string) (*casefile.Case, error) {
	return s.findWhere(ctx, `case_code = $1`, caseCode)
}

func (s *PostgresStore) findWhere(ctx context.Context, where string, arg any) (*casefile.Case, error) {
	q := s.q(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT id, case_code, guest_id, service_id, priority_level, submission_method,
			current_status, total_fee, is_payment,
			estimated_completion_date, actual_completion_date,
			notes, result_description, received_by, created_at, version
		FROM cases WHERE `+where, arg)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}
	if err := s.loadChildren(ctx, q, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) Search(ctx context.Context, filter Filter) ([]*casefile.Case, error) {
	q := s.q(ctx)
	query := `
		SELECT id, case_code, guest_id, service_id, priority_level, submission_method,
			current_status, total_fee, is_payment,
			estimated_completion_date, actual_completion_date,
			notes, result_description, received_by, created_at, version
		FROM cases WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != nil {
		query += ` AND current_status = ` + arg(string(*filter.Status))
	}
	if filter.GuestID != nil {
		query += ` AND guest_id = ` + arg(filter.GuestID.String())
	}
	if filter.MinPriority != nil {
		query += ` AND priority_level >= ` + arg(*filter.MinPriority)
	}
	if filter.CodeContains != "" {
		query += ` AND case_code LIKE ` + arg("%"+filter.CodeContains+"%")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}
	defer rows.Close()

	var out []*casefile.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	for _, c := range out {
		if err := s.loadChildren(ctx, q, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*casefile.Case, error) {
	var (
		c          casefile.Case
		caseID     string
		guestID    string
		serviceID  string
		status     string
		receivedBy []string
	)
	err := row.Scan(
		&caseID, &c.CaseCode, &guestID, &serviceID, &c.PriorityLevel, &c.SubmissionMethod,
		&status, &c.TotalFee, &c.IsPayment,
		&c.EstimatedCompletionDate, &c.ActualCompletionDate,
		&c.Notes, &c.ResultDescription, pq.Array(&receivedBy), &c.CreatedAt, &c.Version,
	)
	if err != nil {
		return nil, err
	}
	if c.ID, err = id.ParseCaseID(caseID); err != nil {
		return nil, fmt.Errorf("stored case id: %w", err)
	}
	if c.GuestID, err = id.ParseGuestID(guestID); err != nil {
		return nil, fmt.Errorf("stored guest id: %w", err)
	}
	if c.ServiceID, err = id.ParseServiceID(serviceID); err != nil {
		return nil, fmt.Errorf("stored service id: %w", err)
	}
	c.CurrentStatus = casefile.Status(status)
	for _, raw := range receivedBy {
		staffID, err := id.ParseStaffID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored receiver id: %w", err)
		}
		c.ReceivedBy = append(c.ReceivedBy, staffID)
	}
	return &c, nil
}

func (s *PostgresStore) loadChildren(ctx context.Context, q dbtx, c *casefile.Case) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, step_number, step_name, is_current, is_finished
		FROM case_steps WHERE case_id = $1 ORDER BY step_number
	`, c.ID.String())
	if err != nil {
		return fmt.Errorf("load case steps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var step casefile.StepInstance
		var rawID string
		if err := rows.Scan(&rawID, &step.StepNumber, &step.StepName, &step.IsCurrent, &step.IsFinished); err != nil {
			return fmt.Errorf("scan case step: %w", err)
		}
		if step.ID, err = uuid.Parse(rawID); err != nil {
			return fmt.Errorf("stored step id: %w", err)
		}
		c.Steps = append(c.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate case steps: %w", err)
	}

	hrows, err := q.QueryContext(ctx, `
		SELECT from_status, to_status, reason, note, actor, at
		FROM case_status_history WHERE case_id = $1 ORDER BY seq
	`, c.ID.String())
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var change casefile.StatusChange
		var from, to, actor string
		if err := hrows.Scan(&from, &to, &change.Reason, &change.Note, &actor, &change.At); err != nil {
			return fmt.Errorf("scan status history: %w", err)
		}
		change.From = casefile.Status(from)
		change.To = casefile.Status(to)
		if u, err := uuid.Parse(actor); err == nil {
			change.Actor = id.StaffID(u)
		}
		c.StatusHistory = append(c.StatusHistory, change)
	}
	if err := hrows.Err(); err != nil {
		return fmt.Errorf("iterate status history: %w", err)
	}

	nrows, err := q.QueryContext(ctx, `
		SELECT step_number, note, actor, at
		FROM case_progress_notes WHERE case_id = $1 ORDER BY seq
	`, c.ID.String())
	if err != nil {
		return fmt.Errorf("load progress notes: %w", err)
	}
	defer nrows.Close()
	for nrows.Next() {
		var note casefile.ProgressNote
		var actor string
		if err := nrows.Scan(&note.StepNumber, &note.Note, &actor, &note.At); err != nil {
			return fmt.Errorf("scan progress note: %w", err)
		}
		if u, err := uuid.Parse(actor); err == nil {
			note.Actor = id.StaffID(u)
		}
		c.ProgressNotes = append(c.ProgressNotes, note)
	}
	if err := nrows.Err(); err != nil {
		return fmt.Errorf("iterate progress notes: %w", err)
	}

	// Never hand a corrupt step list to the controllers.
	if err := c.ValidateSteps(); err != nil {
		return fmt.Errorf("case %s: %w", c.ID, err)
	}
	return nil
}

// inTx runs fn inside the ambient transaction when ctx carries one,
// otherwise inside a fresh transaction that commits on success.
func (s *PostgresStore) inTx(ctx context.Context, fn func(q dbtx) error) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		t, _ := tx.From(ctx)
		return fn(t)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

func staffIDStrings(ids []id.StaffID) []string {
	out := make([]string, 0, len(ids))
	for _, staffID := range ids {
		out = append(out, staffID.String())
	}
	return out
}
