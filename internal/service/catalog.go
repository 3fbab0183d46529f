package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pathwise.app/audit/common/logger"
	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrSearchUnavailable  = errors.New("course search is not configured")
	ErrCategoryNotDefined = errors.New("general education category is not defined")
)

// PrerequisiteParams is one requirement edge in a course ingest.
type PrerequisiteParams struct {
	Code     string  `json:"code"`
	Kind     string  `json:"kind,omitempty"`
	MinGrade *string `json:"min_grade,omitempty"`
}

// CourseParams is a catalog ingest payload. Level and discipline always
// derive from the code; the catalog never stores a course whose code
// disagrees with its classification.
type CourseParams struct {
	Code          string               `json:"code"`
	Title         string               `json:"title"`
	Credits       float64              `json:"credits"`
	Description   string               `json:"description,omitempty"`
	Prerequisites []PrerequisiteParams `json:"prerequisites,omitempty"`
	GECategories  []string             `json:"ge_categories,omitempty"`
}

// SearchParams narrows a course search.
type SearchParams struct {
	Query      string `json:"q"`
	Discipline string `json:"discipline,omitempty"`
	MaxLevel   int32  `json:"max_level,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type CatalogService interface {
	UpsertCourse(ctx context.Context, params CourseParams) (*model.Course, error)
	GetCourse(ctx context.Context, code string) (*model.Course, error)
	ListCourses(ctx context.Context, activeOnly bool) ([]model.Course, error)
	DeactivateCourse(ctx context.Context, code string) error
	PrerequisiteChain(ctx context.Context, code string) ([]audit.Edge, error)

	ListGECategories(ctx context.Context) ([]model.GECategory, error)
	UpsertGECategory(ctx context.Context, category model.GECategory) (*model.GECategory, error)
	DeleteGECategory(ctx context.Context, code string) error
	ReplaceGEAssignments(ctx context.Context, categoryCode string, courseCodes []string) error

	Search(ctx context.Context, params SearchParams) ([]typesense.CourseDocument, error)
	TriggerSync(ctx context.Context) error
}

type catalogService struct {
	courses      store.CourseStore
	geCategories store.GECategoryStore
	txRunner     TxRunner
	producer     queue.Producer
	facts        CatalogFacts
	search       typesense.Client // nil when search is not configured
}

func NewCatalogService(
	courses store.CourseStore,
	geCategories store.GECategoryStore,
	txRunner TxRunner,
	producer queue.Producer,
	facts CatalogFacts,
	search typesense.Client,
) CatalogService {
	return &catalogService{
		courses:      courses,
		geCategories: geCategories,
		txRunner:     txRunner,
		producer:     producer,
		facts:        facts,
		search:       search,
	}
}

var validRequirementKinds = map[model.RequirementKind]bool{
	model.RequirementKindPrerequisite: true,
	model.RequirementKindCorequisite:  true,
	model.RequirementKindRecommended:  true,
}

// UpsertCourse writes the course, its requirement edges and its GE
// assignments in one transaction, then queues a projection rebuild so the
// graph and search mirrors catch up.
func (s *catalogService) UpsertCourse(ctx context.Context, params CourseParams) (*model.Course, error) {
	prefix, number, err := audit.SplitCode(params.Code)
	if err != nil {
		return nil, fmt.Errorf("invalid course code: %w", err)
	}
	if params.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if params.Credits < 0 {
		return nil, fmt.Errorf("%w: credits cannot be negative", ErrInvalidInput)
	}

	course := &model.Course{
		Code:        audit.NormalizeCode(params.Code),
		Title:       params.Title,
		Credits:     params.Credits,
		Level:       int32(number),
		Discipline:  prefix,
		Description: params.Description,
		Active:      true,
	}

	prereqs := make([]model.CoursePrerequisite, 0, len(params.Prerequisites))
	for _, p := range params.Prerequisites {
		requirementCode := audit.NormalizeCode(p.Code)
		if requirementCode == "" {
			return nil, fmt.Errorf("%w: prerequisite code is required", ErrInvalidInput)
		}
		if requirementCode == course.Code {
			return nil, fmt.Errorf("%w: course %s cannot require itself", ErrInvalidInput, course.Code)
		}

		kind := model.RequirementKind(p.Kind)
		if p.Kind == "" {
			kind = model.RequirementKindPrerequisite
		}
		if !validRequirementKinds[kind] {
			return nil, fmt.Errorf("%w: unknown requirement kind %q", ErrInvalidInput, p.Kind)
		}

		prereqs = append(prereqs, model.CoursePrerequisite{
			CourseCode:      course.Code,
			RequirementCode: requirementCode,
			Kind:            kind,
			MinGrade:        p.MinGrade,
		})
	}

	categories, err := s.normalizeCategories(ctx, params.GECategories)
	if err != nil {
		return nil, err
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Courses().Upsert(ctx, course); err != nil {
			return fmt.Errorf("upserting course: %w", err)
		}
		if err := sp.Courses().ReplacePrerequisites(ctx, course.Code, prereqs); err != nil {
			return fmt.Errorf("replacing prerequisites: %w", err)
		}
		if err := sp.GECategories().ReplaceCourseAssignments(ctx, course.Code, categories); err != nil {
			return fmt.Errorf("replacing GE assignments: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.queueSync(ctx)

	slog.InfoContext(ctx, "course ingested",
		"code", course.Code,
		"prerequisites", len(prereqs),
		"ge_categories", len(categories),
	)

	return course, nil
}

func (s *catalogService) GetCourse(ctx context.Context, code string) (*model.Course, error) {
	course, err := s.courses.GetByCode(ctx, audit.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("getting course: %w", err)
	}
	return course, nil
}

func (s *catalogService) ListCourses(ctx context.Context, activeOnly bool) ([]model.Course, error) {
	courses, err := s.courses.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// DeactivateCourse retires a course from planning. It stays in the catalog
// tables and the requirement graph so existing plans keep resolving.
func (s *catalogService) DeactivateCourse(ctx context.Context, code string) error {
	normalized := audit.NormalizeCode(code)
	if _, err := s.GetCourse(ctx, normalized); err != nil {
		return err
	}
	if err := s.courses.Deactivate(ctx, normalized); err != nil {
		return fmt.Errorf("deactivating course: %w", err)
	}

	s.queueSync(ctx)
	slog.InfoContext(ctx, "course deactivated", "code", normalized)
	return nil
}

func (s *catalogService) PrerequisiteChain(ctx context.Context, code string) ([]audit.Edge, error) {
	normalized := audit.NormalizeCode(code)
	if _, err := s.GetCourse(ctx, normalized); err != nil {
		return nil, err
	}

	edges, err := s.facts.EdgesFor(ctx, []string{normalized})
	if err != nil {
		return nil, fmt.Errorf("traversing requirements: %w", err)
	}
	return edges, nil
}

func (s *catalogService) ListGECategories(ctx context.Context) ([]model.GECategory, error) {
	categories, err := s.geCategories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing GE categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) UpsertGECategory(ctx context.Context, category model.GECategory) (*model.GECategory, error) {
	if category.Code == "" || category.Name == "" {
		return nil, fmt.Errorf("%w: code and name are required", ErrInvalidInput)
	}
	if category.MinCredits <= 0 {
		return nil, fmt.Errorf("%w: min_credits must be positive", ErrInvalidInput)
	}

	if err := s.geCategories.Upsert(ctx, &category); err != nil {
		return nil, fmt.Errorf("upserting GE category: %w", err)
	}
	return &category, nil
}

func (s *catalogService) DeleteGECategory(ctx context.Context, code string) error {
	if err := s.geCategories.Delete(ctx, code); err != nil {
		return fmt.Errorf("deleting GE category: %w", err)
	}
	return nil
}

func (s *catalogService) ReplaceGEAssignments(ctx context.Context, categoryCode string, courseCodes []string) error {
	if err := s.requireCategory(ctx, categoryCode); err != nil {
		return err
	}

	normalized := make([]string, 0, len(courseCodes))
	for _, code := range courseCodes {
		n := audit.NormalizeCode(code)
		if n == "" {
			return fmt.Errorf("%w: course code is required", ErrInvalidInput)
		}
		normalized = append(normalized, n)
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.GECategories().ReplaceAssignments(ctx, categoryCode, normalized)
	}); err != nil {
		return fmt.Errorf("replacing assignments: %w", err)
	}
	return nil
}

func (s *catalogService) Search(ctx context.Context, params SearchParams) ([]typesense.CourseDocument, error) {
	if s.search == nil {
		return nil, ErrSearchUnavailable
	}
	if params.Query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}

	docs, err := s.search.Search(ctx, params.Query, typesense.SearchOptions{
		Discipline: params.Discipline,
		MaxLevel:   params.MaxLevel,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching courses: %w", err)
	}
	return docs, nil
}

func (s *catalogService) TriggerSync(ctx context.Context) error {
	if err := s.producer.Enqueue(ctx, queue.TaskMessage{
		TaskType: queue.TaskTypeCatalogSync,
		TraceID:  logger.TraceIDFromContext(ctx),
		Attempt:  1,
	}); err != nil {
		return fmt.Errorf("enqueueing catalog sync: %w", err)
	}
	return nil
}

// queueSync schedules a projection rebuild after a catalog write. Failure is
// logged, not returned: the write committed, and the next sync catches up.
func (s *catalogService) queueSync(ctx context.Context) {
	if err := s.TriggerSync(ctx); err != nil {
		slog.WarnContext(ctx, "failed to queue catalog sync", "error", err)
	}
}

func (s *catalogService) requireCategory(ctx context.Context, categoryCode string) error {
	categories, err := s.geCategories.List(ctx)
	if err != nil {
		return fmt.Errorf("listing GE categories: %w", err)
	}
	for _, cat := range categories {
		if cat.Code == categoryCode {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrCategoryNotDefined, categoryCode)
}

// normalizeCategories validates that every referenced GE category exists.
// Assignments against undefined categories would silently vanish from GE
// tracking, so they are rejected at the door.
func (s *catalogService) normalizeCategories(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	defined, err := s.geCategories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing GE categories: %w", err)
	}
	known := make(map[string]bool, len(defined))
	for _, cat := range defined {
		known[cat.Code] = true
	}

	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		if !known[code] {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotDefined, code)
		}
		normalized = append(normalized, code)
	}
	return normalized, nil
}
