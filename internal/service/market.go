package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pathwise.app/audit/common/id"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/store"
)

var ErrResearchNotFound = errors.New("no market research for emphasis")

// MarketResearchParams are externally gathered labor-market signals for an
// emphasis. The service scores them; it never fabricates data.
type MarketResearchParams struct {
	Emphasis   string   `json:"emphasis"`
	SalaryLow  float64  `json:"salary_low"`
	SalaryHigh float64  `json:"salary_high"`
	GrowthPct  float64  `json:"growth_pct"`
	KeySkills  []string `json:"key_skills,omitempty"`
}

// MarketResearchResult pairs the stored snapshot with its assessment. The
// assessment is recomputed from the snapshot on every read, so it is never
// stale relative to the scoring rules.
type MarketResearchResult struct {
	Snapshot   *model.MarketSnapshot  `json:"snapshot"`
	Assessment audit.MarketAssessment `json:"assessment"`
}

type MarketService interface {
	Conduct(ctx context.Context, params MarketResearchParams) (*MarketResearchResult, error)
	Latest(ctx context.Context, emphasis string) (*MarketResearchResult, error)
}

type marketService struct {
	marketStore store.MarketStore
}

func NewMarketService(marketStore store.MarketStore) MarketService {
	return &marketService{marketStore: marketStore}
}

// Conduct scores the supplied signals and persists them as the newest
// snapshot for the emphasis. Scoring runs first so invalid signals are
// rejected before anything is written.
func (s *marketService) Conduct(ctx context.Context, params MarketResearchParams) (*MarketResearchResult, error) {
	if params.Emphasis == "" {
		return nil, fmt.Errorf("%w: emphasis is required", ErrInvalidInput)
	}

	assessment, err := audit.ScoreMarketViability(signalsFrom(params.SalaryLow, params.SalaryHigh, params.GrowthPct, params.KeySkills))
	if err != nil {
		return nil, fmt.Errorf("scoring market signals: %w", err)
	}

	snapshot := &model.MarketSnapshot{
		ID:         id.New(),
		Emphasis:   params.Emphasis,
		SalaryLow:  params.SalaryLow,
		SalaryHigh: params.SalaryHigh,
		GrowthPct:  params.GrowthPct,
		KeySkills:  params.KeySkills,
	}

	if err := s.marketStore.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("storing market snapshot: %w", err)
	}

	slog.InfoContext(ctx, "market research captured",
		"emphasis", params.Emphasis,
		"viability_score", assessment.ViabilityScore,
		"outlook", assessment.Outlook,
	)

	return &MarketResearchResult{Snapshot: snapshot, Assessment: assessment}, nil
}

func (s *marketService) Latest(ctx context.Context, emphasis string) (*MarketResearchResult, error) {
	snapshot, err := s.marketStore.LatestByEmphasis(ctx, emphasis)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrResearchNotFound
		}
		return nil, fmt.Errorf("loading market snapshot: %w", err)
	}

	assessment, err := audit.ScoreMarketViability(signalsFrom(snapshot.SalaryLow, snapshot.SalaryHigh, snapshot.GrowthPct, snapshot.KeySkills))
	if err != nil {
		return nil, fmt.Errorf("scoring market snapshot: %w", err)
	}

	return &MarketResearchResult{Snapshot: snapshot, Assessment: assessment}, nil
}

func signalsFrom(salaryLow, salaryHigh, growthPct float64, keySkills []string) audit.MarketSignals {
	return audit.MarketSignals{
		SalaryMin:     salaryLow,
		SalaryMax:     salaryHigh,
		GrowthRatePct: growthPct,
		KeySkills:     keySkills,
	}
}
