package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pathwise.app/audit/common"
	"pathwise.app/audit/common/id"
	"pathwise.app/audit/common/logger"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanArchived = errors.New("plan is archived")

	// ErrInvalidInput marks payload problems the transport layer reports as
	// client errors rather than failures.
	ErrInvalidInput = errors.New("invalid input")
)

// PlanParams carries the student-editable plan header fields. The mission
// statement is stored verbatim.
type PlanParams struct {
	Title            string  `json:"title"`
	EmphasisTitle    string  `json:"emphasis_title"`
	MissionStatement string  `json:"mission_statement"`
	Slug             *string `json:"slug,omitempty"`
}

type PlanService interface {
	Create(ctx context.Context, userID int64, params PlanParams) (*model.Plan, error)
	Get(ctx context.Context, userID, planID int64) (*model.Plan, error)
	GetBySlug(ctx context.Context, userID int64, slug string) (*model.Plan, error)
	List(ctx context.Context, userID int64) ([]model.Plan, error)
	Update(ctx context.Context, userID, planID int64, params PlanParams) (*model.Plan, error)
	ReplaceAreas(ctx context.Context, userID, planID int64, areas []model.PlanArea) (*model.Plan, error)
	ReplaceElectives(ctx context.Context, userID, planID int64, electives []model.PlanCourse) (*model.Plan, error)
	ReplacePLOMappings(ctx context.Context, userID, planID int64, mappings map[string][]string) (*model.Plan, error)
	Submit(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error)
	Archive(ctx context.Context, userID, planID int64) error
	Delete(ctx context.Context, userID, planID int64) error
}

type planService struct {
	plans    store.PlanStore
	txRunner TxRunner
	producer queue.Producer
}

func NewPlanService(plans store.PlanStore, txRunner TxRunner, producer queue.Producer) PlanService {
	return &planService{
		plans:    plans,
		txRunner: txRunner,
		producer: producer,
	}
}

func (s *planService) Create(ctx context.Context, userID int64, params PlanParams) (*model.Plan, error) {
	if params.Title == "" || params.EmphasisTitle == "" {
		return nil, fmt.Errorf("%w: title and emphasis_title are required", ErrInvalidInput)
	}

	slug, err := s.ensureSlug(ctx, params.EmphasisTitle, params.Slug)
	if err != nil {
		return nil, err
	}

	plan := &model.Plan{
		ID:               id.New(),
		UserID:           userID,
		Slug:             slug,
		Title:            params.Title,
		EmphasisTitle:    params.EmphasisTitle,
		MissionStatement: params.MissionStatement,
		Status:           model.PlanStatusDraft,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("creating plan: %w", err)
	}

	slog.InfoContext(ctx, "plan created", "plan_id", plan.ID, "user_id", userID, "slug", plan.Slug)
	return plan, nil
}

func (s *planService) Get(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	plan, err := s.fetchOwned(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.plans.LoadFull(ctx, plan); err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return plan, nil
}

func (s *planService) GetBySlug(ctx context.Context, userID int64, slug string) (*model.Plan, error) {
	plan, err := s.plans.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, ErrPlanNotFound
	}
	if err := s.plans.LoadFull(ctx, plan); err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return plan, nil
}

func (s *planService) List(ctx context.Context, userID int64) ([]model.Plan, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

// Update changes the plan header. The slug stays fixed after creation so
// saved links keep working even when the emphasis title is reworded.
func (s *planService) Update(ctx context.Context, userID, planID int64, params PlanParams) (*model.Plan, error) {
	if params.Title == "" || params.EmphasisTitle == "" {
		return nil, fmt.Errorf("%w: title and emphasis_title are required", ErrInvalidInput)
	}

	plan, err := s.fetchEditable(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	plan.Title = params.Title
	plan.EmphasisTitle = params.EmphasisTitle
	plan.MissionStatement = params.MissionStatement

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("updating plan: %w", err)
	}
	return plan, nil
}

func (s *planService) ReplaceAreas(ctx context.Context, userID, planID int64, areas []model.PlanArea) (*model.Plan, error) {
	plan, err := s.fetchEditable(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(areas))
	for i := range areas {
		if areas[i].Name == "" {
			return nil, fmt.Errorf("%w: area name is required", ErrInvalidInput)
		}
		if seen[areas[i].Name] {
			return nil, fmt.Errorf("%w: duplicate area name %q", ErrInvalidInput, areas[i].Name)
		}
		seen[areas[i].Name] = true

		areas[i].ID = id.New()
		areas[i].PlanID = planID
		areas[i].Position = int32(i)

		for j := range areas[i].Courses {
			if err := prepareCourse(&areas[i].Courses[j], planID, &areas[i].ID, int32(j)); err != nil {
				return nil, err
			}
		}
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.Plans().ReplaceAreas(ctx, planID, areas)
	}); err != nil {
		return nil, fmt.Errorf("replacing areas: %w", err)
	}

	return s.Get(ctx, userID, plan.ID)
}

func (s *planService) ReplaceElectives(ctx context.Context, userID, planID int64, electives []model.PlanCourse) (*model.Plan, error) {
	plan, err := s.fetchEditable(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	for i := range electives {
		if err := prepareCourse(&electives[i], planID, nil, int32(i)); err != nil {
			return nil, err
		}
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.Plans().ReplaceElectives(ctx, planID, electives)
	}); err != nil {
		return nil, fmt.Errorf("replacing electives: %w", err)
	}

	return s.Get(ctx, userID, plan.ID)
}

func (s *planService) ReplacePLOMappings(ctx context.Context, userID, planID int64, mappings map[string][]string) (*model.Plan, error) {
	plan, err := s.fetchEditable(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string][]string, len(mappings))
	for code, plos := range mappings {
		normalCode := audit.NormalizeCode(code)
		if normalCode == "" {
			return nil, fmt.Errorf("%w: course code is required in PLO mappings", ErrInvalidInput)
		}
		for _, plo := range plos {
			if plo == "" {
				return nil, fmt.Errorf("%w: course %s: empty PLO identifier", ErrInvalidInput, normalCode)
			}
		}
		normalized[normalCode] = plos
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.Plans().ReplacePLOMappings(ctx, planID, normalized)
	}); err != nil {
		return nil, fmt.Errorf("replacing PLO mappings: %w", err)
	}

	return s.Get(ctx, userID, plan.ID)
}

// Submit marks the plan submitted and queues an audit run. The status flip
// and the report row commit together; the queue message goes out after, so
// a worker can never pick up a report that might still roll back.
func (s *planService) Submit(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error) {
	plan, err := s.fetchEditable(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	report := &model.ValidationReport{
		ID:        id.New(),
		PlanID:    plan.ID,
		Status:    model.ReportStatusQueued,
		Projected: projected,
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Plans().UpdateStatus(ctx, plan.ID, model.PlanStatusSubmitted); err != nil {
			return fmt.Errorf("updating plan status: %w", err)
		}
		if err := sp.Reports().Create(ctx, report); err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.producer.Enqueue(ctx, queue.TaskMessage{
		TaskType:  queue.TaskTypePlanAudit,
		ReportID:  &report.ID,
		PlanID:    &plan.ID,
		Projected: projected,
		TraceID:   logger.TraceIDFromContext(ctx),
		Attempt:   1,
	}); err != nil {
		return nil, fmt.Errorf("enqueueing audit task: %w", err)
	}

	slog.InfoContext(ctx, "plan submitted for audit",
		"plan_id", plan.ID,
		"report_id", report.ID,
		"projected", projected,
	)

	return report, nil
}

func (s *planService) Archive(ctx context.Context, userID, planID int64) error {
	plan, err := s.fetchOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if err := s.plans.UpdateStatus(ctx, plan.ID, model.PlanStatusArchived); err != nil {
		return fmt.Errorf("archiving plan: %w", err)
	}
	return nil
}

func (s *planService) Delete(ctx context.Context, userID, planID int64) error {
	plan, err := s.fetchOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	slog.InfoContext(ctx, "plan deleted", "plan_id", plan.ID, "user_id", userID)
	return nil
}

// fetchOwnedPlan loads the plan shell and verifies ownership. Plans owned by
// someone else read as not found rather than forbidden.
func fetchOwnedPlan(ctx context.Context, plans store.PlanStore, userID, planID int64) (*model.Plan, error) {
	plan, err := plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) fetchOwned(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	return fetchOwnedPlan(ctx, s.plans, userID, planID)
}

func (s *planService) fetchEditable(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	plan, err := s.fetchOwned(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == model.PlanStatusArchived {
		return nil, ErrPlanArchived
	}
	return plan, nil
}

func (s *planService) ensureSlug(ctx context.Context, emphasisTitle string, slug *string) (string, error) {
	input := emphasisTitle
	if slug != nil && *slug != "" {
		input = *slug
	}

	base, err := common.Slugify(input, "plan")
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}

	// Fast path
	if _, err := s.plans.GetBySlug(ctx, base); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return base, nil
		}
		return "", fmt.Errorf("checking slug availability: %w", err)
	}

	// Add numeric suffix until available
	for i := 1; i <= 20; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		_, err := s.plans.GetBySlug(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug availability: %w", err)
		}
	}

	return "", fmt.Errorf("unable to find available slug for %q", base)
}

var validCourseStatuses = map[string]bool{
	string(audit.StatusCompleted):  true,
	string(audit.StatusInProgress): true,
	string(audit.StatusPlanned):    true,
	string(audit.StatusWithdrawn):  true,
}

// prepareCourse normalizes and validates one course entry in place and
// assigns its identity. Rule-level checks (prerequisites, thresholds) are
// the validation engine's job; this only rejects entries no plan should
// ever store.
func prepareCourse(course *model.PlanCourse, planID int64, areaID *int64, position int32) error {
	code := audit.NormalizeCode(course.Code)
	if code == "" {
		return fmt.Errorf("%w: course code is required", ErrInvalidInput)
	}
	if course.Credits < 0 {
		return fmt.Errorf("%w: course %s: credits cannot be negative", ErrInvalidInput, code)
	}
	if course.Status == "" {
		course.Status = string(audit.StatusPlanned)
	}
	if !validCourseStatuses[course.Status] {
		return fmt.Errorf("%w: course %s: unknown status %q", ErrInvalidInput, code, course.Status)
	}

	course.ID = id.New()
	course.PlanID = planID
	course.AreaID = areaID
	course.Code = code
	course.Position = position
	return nil
}
