package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"pathwise.app/audit/common/id"
	"pathwise.app/audit/core/config"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/mapper"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/store"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrUnknownCourses = errors.New("courses not in catalog")
)

// CatalogFacts supplies the read-only catalog view the engine validates
// against. Implemented by the catalog facts provider; mirrored here so the
// service stays mockable.
type CatalogFacts interface {
	FactsFor(ctx context.Context, codes []string) (audit.Facts, error)
	EdgesFor(ctx context.Context, codes []string) ([]audit.Edge, error)
}

// CourseEntry is one course reference in a stateless audit operation. The
// catalog supplies credits and title; callers only say which courses and in
// what state.
type CourseEntry struct {
	Code   string  `json:"code"`
	Status string  `json:"status,omitempty"`
	Grade  *string `json:"grade,omitempty"`
	Term   string  `json:"term,omitempty"`
}

// ThresholdOverrides lets a concentration check run against different
// minimums than the deployment rules. Nil fields keep the configured value.
type ThresholdOverrides struct {
	AreaMinCredits          *float64 `json:"area_min_credits,omitempty"`
	AreaMinUpperCredits     *float64 `json:"area_min_upper_credits,omitempty"`
	CombinedMinCredits      *float64 `json:"combined_min_credits,omitempty"`
	CombinedMinUpperCredits *float64 `json:"combined_min_upper_credits,omitempty"`
}

type AuditService interface {
	CalculateCredits(ctx context.Context, entries []CourseEntry, projected bool) (audit.CreditSummary, error)
	CheckPrerequisites(ctx context.Context, userID int64, target string, completed []CourseEntry, planID *int64) (audit.PrereqResult, error)
	ValidateConcentrations(ctx context.Context, areas map[string][]CourseEntry, ploMappings map[string][]string, overrides *ThresholdOverrides) (audit.ConcentrationResult, error)
	TrackGeneralEducation(ctx context.Context, entries []CourseEntry) (audit.GEResult, error)

	ValidateNow(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error)
	Progress(ctx context.Context, userID, planID int64) (*audit.Progress, error)
	Sequence(ctx context.Context, userID, planID int64) (*audit.SequenceResult, error)

	LatestReport(ctx context.Context, userID, planID int64) (*model.ValidationReport, error)
	ListReports(ctx context.Context, userID, planID int64, limit int32) ([]model.ValidationReport, error)
}

type auditService struct {
	plans    store.PlanStore
	reports  store.ReportStore
	courses  store.CourseStore
	txRunner TxRunner
	facts    CatalogFacts
	rules    config.RulesConfig
}

func NewAuditService(
	plans store.PlanStore,
	reports store.ReportStore,
	courses store.CourseStore,
	txRunner TxRunner,
	facts CatalogFacts,
	rules config.RulesConfig,
) AuditService {
	return &auditService{
		plans:    plans,
		reports:  reports,
		courses:  courses,
		txRunner: txRunner,
		facts:    facts,
		rules:    rules,
	}
}

func (s *auditService) CalculateCredits(ctx context.Context, entries []CourseEntry, projected bool) (audit.CreditSummary, error) {
	courses, err := s.resolveCourses(ctx, entries)
	if err != nil {
		return audit.CreditSummary{}, err
	}

	summary, err := audit.AggregateCredits(courses, mapper.EngineConfig(s.rules), audit.AggregateOptions{Projected: projected})
	if err != nil {
		return audit.CreditSummary{}, fmt.Errorf("aggregating credits: %w", err)
	}
	return summary, nil
}

// CheckPrerequisites resolves the requirement chain for target against a
// completed set given inline, or against the caller's stored plan when
// planID is set.
func (s *auditService) CheckPrerequisites(ctx context.Context, userID int64, target string, completed []CourseEntry, planID *int64) (audit.PrereqResult, error) {
	target = audit.NormalizeCode(target)
	if target == "" {
		return audit.PrereqResult{}, fmt.Errorf("%w: target course code is required", ErrInvalidInput)
	}
	if planID != nil && len(completed) > 0 {
		return audit.PrereqResult{}, fmt.Errorf("%w: provide either completed courses or plan_id, not both", ErrInvalidInput)
	}

	edges, err := s.facts.EdgesFor(ctx, []string{target})
	if err != nil {
		return audit.PrereqResult{}, fmt.Errorf("loading requirement edges: %w", err)
	}

	var plan []audit.Course
	if planID != nil {
		stored, err := fetchOwnedPlan(ctx, s.plans, userID, *planID)
		if err != nil {
			return audit.PrereqResult{}, err
		}
		if err := s.plans.LoadFull(ctx, stored); err != nil {
			return audit.PrereqResult{}, fmt.Errorf("loading plan: %w", err)
		}
		plan = mapper.EnginePlan(stored, false).AllCourses()
	} else {
		// The completed set needs no catalog resolution: satisfaction only
		// reads code, status and grade.
		plan = make([]audit.Course, 0, len(completed))
		for _, entry := range completed {
			course, err := entryCourse(entry)
			if err != nil {
				return audit.PrereqResult{}, err
			}
			plan = append(plan, course)
		}
	}

	result, err := audit.ResolvePrerequisites(target, edges, plan)
	if err != nil {
		return audit.PrereqResult{}, fmt.Errorf("resolving prerequisites: %w", err)
	}
	return result, nil
}

func (s *auditService) ValidateConcentrations(ctx context.Context, areas map[string][]CourseEntry, ploMappings map[string][]string, overrides *ThresholdOverrides) (audit.ConcentrationResult, error) {
	names := make([]string, 0, len(areas))
	for name := range areas {
		names = append(names, name)
	}
	sort.Strings(names)

	engineAreas := make([]audit.Area, 0, len(areas))
	for _, name := range names {
		courses, err := s.resolveCourses(ctx, areas[name])
		if err != nil {
			return audit.ConcentrationResult{}, err
		}
		engineAreas = append(engineAreas, audit.Area{Name: name, Courses: courses})
	}

	cfg := mapper.EngineConfig(s.rules)
	if overrides != nil {
		if overrides.AreaMinCredits != nil {
			cfg.AreaMinCredits = *overrides.AreaMinCredits
		}
		if overrides.AreaMinUpperCredits != nil {
			cfg.AreaMinUpperCredits = *overrides.AreaMinUpperCredits
		}
		if overrides.CombinedMinCredits != nil {
			cfg.CombinedMinCredits = *overrides.CombinedMinCredits
		}
		if overrides.CombinedMinUpperCredits != nil {
			cfg.CombinedMinUpperCredits = *overrides.CombinedMinUpperCredits
		}
	}

	// Area checks are inherently forward-looking: a student lays out areas
	// before taking the courses, so planned work counts here.
	result, err := audit.ValidateConcentrations(engineAreas, ploMappings, cfg, audit.AggregateOptions{Projected: true})
	if err != nil {
		return audit.ConcentrationResult{}, fmt.Errorf("validating concentrations: %w", err)
	}
	return result, nil
}

func (s *auditService) TrackGeneralEducation(ctx context.Context, entries []CourseEntry) (audit.GEResult, error) {
	courses, err := s.resolveCourses(ctx, entries)
	if err != nil {
		return audit.GEResult{}, err
	}

	codes := make([]string, 0, len(courses))
	for _, c := range courses {
		codes = append(codes, c.Code)
	}

	facts, err := s.facts.FactsFor(ctx, codes)
	if err != nil {
		return audit.GEResult{}, fmt.Errorf("loading catalog facts: %w", err)
	}

	result, err := audit.TrackGeneralEducation(courses, facts.GECategories, facts.GEAssignments)
	if err != nil {
		return audit.GEResult{}, fmt.Errorf("tracking general education: %w", err)
	}
	return result, nil
}

// ValidateNow runs the full validation inline and persists the finished
// report. Nothing is written when the engine rejects its configuration; a
// rule failure is report content, not an error.
func (s *auditService) ValidateNow(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error) {
	plan, err := fetchOwnedPlan(ctx, s.plans, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.plans.LoadFull(ctx, plan); err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	enginePlan := mapper.EnginePlan(plan, projected)

	codes := make([]string, 0)
	for _, c := range enginePlan.AllCourses() {
		codes = append(codes, c.Code)
	}

	facts, err := s.facts.FactsFor(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("assembling catalog facts: %w", err)
	}

	result, err := audit.Validate(ctx, enginePlan, facts, mapper.EngineConfig(s.rules))
	if err != nil {
		return nil, fmt.Errorf("running validation: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}

	report := &model.ValidationReport{
		ID:        id.New(),
		PlanID:    plan.ID,
		Status:    model.ReportStatusRunning,
		Projected: projected,
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Reports().Create(ctx, report); err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		return sp.Reports().MarkComplete(ctx, report.ID, result.Passed, payload)
	}); err != nil {
		return nil, err
	}

	stored, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading report: %w", err)
	}

	slog.InfoContext(ctx, "plan validated",
		"plan_id", plan.ID,
		"report_id", stored.ID,
		"passed", result.Passed,
		"issues", len(result.Issues),
	)

	return stored, nil
}

func (s *auditService) Progress(ctx context.Context, userID, planID int64) (*audit.Progress, error) {
	plan, err := fetchOwnedPlan(ctx, s.plans, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.plans.LoadFull(ctx, plan); err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	progress, err := audit.AnalyzeProgress(mapper.EnginePlan(plan, false), mapper.EngineConfig(s.rules))
	if err != nil {
		return nil, fmt.Errorf("analyzing progress: %w", err)
	}
	return progress, nil
}

func (s *auditService) Sequence(ctx context.Context, userID, planID int64) (*audit.SequenceResult, error) {
	plan, err := fetchOwnedPlan(ctx, s.plans, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.plans.LoadFull(ctx, plan); err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	enginePlan := mapper.EnginePlan(plan, true)

	codes := make([]string, 0)
	for _, c := range enginePlan.AllCourses() {
		codes = append(codes, c.Code)
	}

	edges, err := s.facts.EdgesFor(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("loading requirement edges: %w", err)
	}

	sequence, err := audit.SequencePlan(enginePlan, edges, mapper.EngineSequenceOptions(s.rules))
	if err != nil {
		return nil, fmt.Errorf("sequencing plan: %w", err)
	}
	return sequence, nil
}

func (s *auditService) LatestReport(ctx context.Context, userID, planID int64) (*model.ValidationReport, error) {
	if _, err := fetchOwnedPlan(ctx, s.plans, userID, planID); err != nil {
		return nil, err
	}

	report, err := s.reports.GetLatestByPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return report, nil
}

func (s *auditService) ListReports(ctx context.Context, userID, planID int64, limit int32) ([]model.ValidationReport, error) {
	if _, err := fetchOwnedPlan(ctx, s.plans, userID, planID); err != nil {
		return nil, err
	}

	reports, err := s.reports.ListByPlan(ctx, planID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// resolveCourses turns course references into engine courses using catalog
// credits and titles. Unknown codes fail the whole operation so a typo never
// silently drops a course from the math.
func (s *auditService) resolveCourses(ctx context.Context, entries []CourseEntry) ([]audit.Course, error) {
	courses := make([]audit.Course, 0, len(entries))
	var missing []string
	for _, entry := range entries {
		course, err := entryCourse(entry)
		if err != nil {
			return nil, err
		}

		catalogCourse, err := s.courses.GetByCode(ctx, course.Code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				missing = append(missing, course.Code)
				continue
			}
			return nil, fmt.Errorf("looking up course %s: %w", course.Code, err)
		}

		course.Title = catalogCourse.Title
		course.Credits = catalogCourse.Credits
		courses = append(courses, course)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCourses, strings.Join(missing, ", "))
	}
	return courses, nil
}

func entryCourse(entry CourseEntry) (audit.Course, error) {
	code := audit.NormalizeCode(entry.Code)
	if code == "" {
		return audit.Course{}, fmt.Errorf("%w: course code is required", ErrInvalidInput)
	}

	status := entry.Status
	if status == "" {
		status = string(audit.StatusCompleted)
	}
	if !validCourseStatuses[status] {
		return audit.Course{}, fmt.Errorf("%w: course %s: unknown status %q", ErrInvalidInput, code, status)
	}

	return audit.Course{
		Code:   code,
		Status: audit.CourseStatus(status),
		Grade:  entry.Grade,
		Term:   entry.Term,
	}, nil
}
