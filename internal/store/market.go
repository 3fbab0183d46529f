package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/model"
)

type marketStore struct {
	q db.Querier
}

func newMarketStore(q db.Querier) MarketStore {
	return &marketStore{q: q}
}

const marketSnapshotColumns = `id, emphasis, salary_low, salary_high, growth_pct, key_skills, captured_at`

func scanMarketSnapshot(row pgx.Row) (*model.MarketSnapshot, error) {
	var snap model.MarketSnapshot
	err := row.Scan(&snap.ID, &snap.Emphasis, &snap.SalaryLow, &snap.SalaryHigh,
		&snap.GrowthPct, &snap.KeySkills, &snap.CapturedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

func (s *marketStore) Create(ctx context.Context, snapshot *model.MarketSnapshot) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO market_snapshots (id, emphasis, salary_low, salary_high, growth_pct, key_skills)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+marketSnapshotColumns,
		snapshot.ID, snapshot.Emphasis, snapshot.SalaryLow, snapshot.SalaryHigh,
		snapshot.GrowthPct, snapshot.KeySkills)

	created, err := scanMarketSnapshot(row)
	if err != nil {
		return err
	}
	*snapshot = *created
	return nil
}

func (s *marketStore) LatestByEmphasis(ctx context.Context, emphasis string) (*model.MarketSnapshot, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+marketSnapshotColumns+`
		FROM market_snapshots
		WHERE emphasis = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1`, emphasis)
	return scanMarketSnapshot(row)
}
