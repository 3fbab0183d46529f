package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/model"
)

type reportStore struct {
	q db.Querier
}

func newReportStore(q db.Querier) ReportStore {
	return &reportStore{q: q}
}

const reportColumns = `id, plan_id, status, projected, passed, report, error, attempt, created_at, started_at, finished_at`

func scanReport(row pgx.Row) (*model.ValidationReport, error) {
	var r model.ValidationReport
	err := row.Scan(&r.ID, &r.PlanID, &r.Status, &r.Projected, &r.Passed, &r.Report,
		&r.Error, &r.Attempt, &r.CreatedAt, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *reportStore) GetByID(ctx context.Context, id int64) (*model.ValidationReport, error) {
	row := s.q.QueryRow(ctx, `SELECT `+reportColumns+` FROM validation_reports WHERE id = $1`, id)
	return scanReport(row)
}

func (s *reportStore) GetLatestByPlan(ctx context.Context, planID int64) (*model.ValidationReport, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM validation_reports
		WHERE plan_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, planID)
	return scanReport(row)
}

func (s *reportStore) Create(ctx context.Context, report *model.ValidationReport) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO validation_reports (id, plan_id, status, projected)
		VALUES ($1, $2, $3, $4)
		RETURNING `+reportColumns,
		report.ID, report.PlanID, report.Status, report.Projected)

	created, err := scanReport(row)
	if err != nil {
		return err
	}
	*report = *created
	return nil
}

// ClaimQueued atomically moves a queued or previously failed report to
// running, so concurrent workers cannot pick up the same report. Returns
// false when the report is already running, finished or missing.
func (s *reportStore) ClaimQueued(ctx context.Context, id int64) (bool, *model.ValidationReport, error) {
	row := s.q.QueryRow(ctx, `
		UPDATE validation_reports
		SET status = 'running', attempt = attempt + 1, started_at = now(), error = NULL
		WHERE id = $1 AND status IN ('queued', 'failed')
		RETURNING `+reportColumns, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, report, nil
}

func (s *reportStore) MarkComplete(ctx context.Context, id int64, passed bool, report []byte) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE validation_reports
		SET status = 'complete', passed = $2, report = $3, error = NULL, finished_at = now()
		WHERE id = $1`, id, passed, report)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reportStore) MarkFailed(ctx context.Context, id int64, errMsg *string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE validation_reports
		SET status = 'failed', error = $2, finished_at = now()
		WHERE id = $1`, id, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reportStore) ListByPlan(ctx context.Context, planID int64, limit int32) ([]model.ValidationReport, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.q.Query(ctx, `
		SELECT `+reportColumns+`
		FROM validation_reports
		WHERE plan_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, planID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.ValidationReport
	for rows.Next() {
		var r model.ValidationReport
		err := rows.Scan(&r.ID, &r.PlanID, &r.Status, &r.Projected, &r.Passed, &r.Report,
			&r.Error, &r.Attempt, &r.CreatedAt, &r.StartedAt, &r.FinishedAt)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
