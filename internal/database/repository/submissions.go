package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Submission status values.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusFailed   = "failed"
)

// Submission is one journaled flow event attempt.
type Submission struct {
	ID         string
	Widget     string
	FlowID     string
	Payload    string
	Status     string
	Error      *string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// SubmissionFilters defines list filters.
type SubmissionFilters struct {
	Widget string
	Status string
	Limit  int
}

// SubmissionRepo handles the submission journal.
type SubmissionRepo struct {
	db *sql.DB
}

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

func (r *SubmissionRepo) Insert(ctx context.Context, s Submission) error {
	if s.Status == "" {
		s.Status = StatusPending
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO submissions(id, widget, flow_id, payload, status, error, created_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, s.ID, s.Widget, s.FlowID, s.Payload, s.Status, s.Error)
	return err
}

// Finish records the outcome of a submission. A nil cause marks it accepted.
func (r *SubmissionRepo) Finish(ctx context.Context, id string, cause error) error {
	status := StatusAccepted
	var msg *string
	if cause != nil {
		status = StatusFailed
		text := cause.Error()
		msg = &text
	}
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`, status, msg, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SubmissionRepo) Get(ctx context.Context, id string) (*Submission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, widget, flow_id, payload, status, error, created_at, finished_at FROM submissions WHERE id = ?`, id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepo) List(ctx context.Context, f SubmissionFilters) ([]Submission, error) {
	query := "SELECT id, widget, flow_id, payload, status, error, created_at, finished_at FROM submissions WHERE 1=1"
	var args []interface{}
	if f.Widget != "" {
		query += " AND widget = ?"
		args = append(args, f.Widget)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (Submission, error) {
	var s Submission
	var errText sql.NullString
	var finished sql.NullTime
	if err := row.Scan(&s.ID, &s.Widget, &s.FlowID, &s.Payload, &s.Status, &errText, &s.CreatedAt, &finished); err != nil {
		return Submission{}, err
	}
	if errText.Valid {
		s.Error = &errText.String
	}
	if finished.Valid {
		t := finished.Time
		s.FinishedAt = &t
	}
	return s, nil
}
