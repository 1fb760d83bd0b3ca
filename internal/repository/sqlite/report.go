package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/model"
	"github.com/sakif/mathcode/internal/repository"
)

var _ repository.ReportRepository = (*DB)(nil)

// Page size bounds for List.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Create stores a new report. ID (an xid: 20 URL-safe chars, sortable by
// creation time) and CreatedAt are filled in on the caller's struct.
func (db *DB) Create(ctx context.Context, r *model.Report) error {
	r.ID = xid.New().String()
	r.CreatedAt = time.Now().UTC()
	if r.Status == "" {
		r.Status = executor.StatusSuccess
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (id, day, school, student_id, name, problem, code, result, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Day, r.School, r.StudentID, r.Name,
		r.Problem, r.Code, r.Result, string(r.Status), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating report: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound for an unknown id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var (
		r      model.Report
		status string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, day, school, student_id, name, problem, code, result, status, created_at
		 FROM reports
		 WHERE id = ?`,
		id,
	).Scan(
		&r.ID, &r.Day, &r.School, &r.StudentID, &r.Name,
		&r.Problem, &r.Code, &r.Result, &status, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("report", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting report %s: %w", id, err)
	}
	r.Status = executor.Status(status)
	return &r, nil
}

// List returns report summaries, newest first. Limit is clamped to
// 1..100 (default 20).
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.ReportSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(opts.Offset, 0)

	// day = 0 disables the filter.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, day, school, student_id, name, created_at
		 FROM reports
		 WHERE (? = 0 OR day = ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts.Day, opts.Day, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reports: %w", err)
	}
	defer rows.Close()

	out := make([]model.ReportSummary, 0, limit)
	for rows.Next() {
		var s model.ReportSummary
		if err := rows.Scan(&s.ID, &s.Day, &s.School, &s.StudentID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning report row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reports: %w", err)
	}
	return out, nil
}

// Delete removes a report; an unknown id is apperror.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting report %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("report", id)
	}
	return nil
}
