package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
)

// authedRequest builds a request carrying the session cookie the auth
// middleware reads.
func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: "pathwise_session", Value: "42"})
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

type mockPlanService struct {
	createFn             func(ctx context.Context, userID int64, params service.PlanParams) (*model.Plan, error)
	getFn                func(ctx context.Context, userID, planID int64) (*model.Plan, error)
	getBySlugFn          func(ctx context.Context, userID int64, slug string) (*model.Plan, error)
	listFn               func(ctx context.Context, userID int64) ([]model.Plan, error)
	updateFn             func(ctx context.Context, userID, planID int64, params service.PlanParams) (*model.Plan, error)
	replaceAreasFn       func(ctx context.Context, userID, planID int64, areas []model.PlanArea) (*model.Plan, error)
	replaceElectivesFn   func(ctx context.Context, userID, planID int64, electives []model.PlanCourse) (*model.Plan, error)
	replacePLOMappingsFn func(ctx context.Context, userID, planID int64, mappings map[string][]string) (*model.Plan, error)
	submitFn             func(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error)
	archiveFn            func(ctx context.Context, userID, planID int64) error
	deleteFn             func(ctx context.Context, userID, planID int64) error
}

func (m *mockPlanService) Create(ctx context.Context, userID int64, params service.PlanParams) (*model.Plan, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, params)
	}
	return nil, nil
}

func (m *mockPlanService) Get(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, planID)
	}
	return nil, nil
}

func (m *mockPlanService) GetBySlug(ctx context.Context, userID int64, slug string) (*model.Plan, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, userID, slug)
	}
	return nil, nil
}

func (m *mockPlanService) List(ctx context.Context, userID int64) ([]model.Plan, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []model.Plan{}, nil
}

func (m *mockPlanService) Update(ctx context.Context, userID, planID int64, params service.PlanParams) (*model.Plan, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, planID, params)
	}
	return nil, nil
}

func (m *mockPlanService) ReplaceAreas(ctx context.Context, userID, planID int64, areas []model.PlanArea) (*model.Plan, error) {
	if m.replaceAreasFn != nil {
		return m.replaceAreasFn(ctx, userID, planID, areas)
	}
	return nil, nil
}

func (m *mockPlanService) ReplaceElectives(ctx context.Context, userID, planID int64, electives []model.PlanCourse) (*model.Plan, error) {
	if m.replaceElectivesFn != nil {
		return m.replaceElectivesFn(ctx, userID, planID, electives)
	}
	return nil, nil
}

func (m *mockPlanService) ReplacePLOMappings(ctx context.Context, userID, planID int64, mappings map[string][]string) (*model.Plan, error) {
	if m.replacePLOMappingsFn != nil {
		return m.replacePLOMappingsFn(ctx, userID, planID, mappings)
	}
	return nil, nil
}

func (m *mockPlanService) Submit(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, planID, projected)
	}
	return nil, nil
}

func (m *mockPlanService) Archive(ctx context.Context, userID, planID int64) error {
	if m.archiveFn != nil {
		return m.archiveFn(ctx, userID, planID)
	}
	return nil
}

func (m *mockPlanService) Delete(ctx context.Context, userID, planID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, planID)
	}
	return nil
}

type mockAuditService struct {
	calculateCreditsFn       func(ctx context.Context, entries []service.CourseEntry, projected bool) (audit.CreditSummary, error)
	checkPrerequisitesFn     func(ctx context.Context, userID int64, target string, completed []service.CourseEntry, planID *int64) (audit.PrereqResult, error)
	validateConcentrationsFn func(ctx context.Context, areas map[string][]service.CourseEntry, ploMappings map[string][]string, overrides *service.ThresholdOverrides) (audit.ConcentrationResult, error)
	trackGeneralEducationFn  func(ctx context.Context, entries []service.CourseEntry) (audit.GEResult, error)
	validateNowFn            func(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error)
	progressFn               func(ctx context.Context, userID, planID int64) (*audit.Progress, error)
	sequenceFn               func(ctx context.Context, userID, planID int64) (*audit.SequenceResult, error)
	latestReportFn           func(ctx context.Context, userID, planID int64) (*model.ValidationReport, error)
	listReportsFn            func(ctx context.Context, userID, planID int64, limit int32) ([]model.ValidationReport, error)
}

func (m *mockAuditService) CalculateCredits(ctx context.Context, entries []service.CourseEntry, projected bool) (audit.CreditSummary, error) {
	if m.calculateCreditsFn != nil {
		return m.calculateCreditsFn(ctx, entries, projected)
	}
	return audit.CreditSummary{}, nil
}

func (m *mockAuditService) CheckPrerequisites(ctx context.Context, userID int64, target string, completed []service.CourseEntry, planID *int64) (audit.PrereqResult, error) {
	if m.checkPrerequisitesFn != nil {
		return m.checkPrerequisitesFn(ctx, userID, target, completed, planID)
	}
	return audit.PrereqResult{}, nil
}

func (m *mockAuditService) ValidateConcentrations(ctx context.Context, areas map[string][]service.CourseEntry, ploMappings map[string][]string, overrides *service.ThresholdOverrides) (audit.ConcentrationResult, error) {
	if m.validateConcentrationsFn != nil {
		return m.validateConcentrationsFn(ctx, areas, ploMappings, overrides)
	}
	return audit.ConcentrationResult{}, nil
}

func (m *mockAuditService) TrackGeneralEducation(ctx context.Context, entries []service.CourseEntry) (audit.GEResult, error) {
	if m.trackGeneralEducationFn != nil {
		return m.trackGeneralEducationFn(ctx, entries)
	}
	return audit.GEResult{}, nil
}

func (m *mockAuditService) ValidateNow(ctx context.Context, userID, planID int64, projected bool) (*model.ValidationReport, error) {
	if m.validateNowFn != nil {
		return m.validateNowFn(ctx, userID, planID, projected)
	}
	return nil, nil
}

func (m *mockAuditService) Progress(ctx context.Context, userID, planID int64) (*audit.Progress, error) {
	if m.progressFn != nil {
		return m.progressFn(ctx, userID, planID)
	}
	return nil, nil
}

func (m *mockAuditService) Sequence(ctx context.Context, userID, planID int64) (*audit.SequenceResult, error) {
	if m.sequenceFn != nil {
		return m.sequenceFn(ctx, userID, planID)
	}
	return nil, nil
}

func (m *mockAuditService) LatestReport(ctx context.Context, userID, planID int64) (*model.ValidationReport, error) {
	if m.latestReportFn != nil {
		return m.latestReportFn(ctx, userID, planID)
	}
	return nil, nil
}

func (m *mockAuditService) ListReports(ctx context.Context, userID, planID int64, limit int32) ([]model.ValidationReport, error) {
	if m.listReportsFn != nil {
		return m.listReportsFn(ctx, userID, planID, limit)
	}
	return []model.ValidationReport{}, nil
}

type mockCatalogService struct {
	upsertCourseFn         func(ctx context.Context, params service.CourseParams) (*model.Course, error)
	getCourseFn            func(ctx context.Context, code string) (*model.Course, error)
	listCoursesFn          func(ctx context.Context, activeOnly bool) ([]model.Course, error)
	deactivateCourseFn     func(ctx context.Context, code string) error
	prerequisiteChainFn    func(ctx context.Context, code string) ([]audit.Edge, error)
	listGECategoriesFn     func(ctx context.Context) ([]model.GECategory, error)
	upsertGECategoryFn     func(ctx context.Context, category model.GECategory) (*model.GECategory, error)
	deleteGECategoryFn     func(ctx context.Context, code string) error
	replaceAssignmentsFn   func(ctx context.Context, categoryCode string, courseCodes []string) error
	searchFn               func(ctx context.Context, params service.SearchParams) ([]typesense.CourseDocument, error)
	triggerSyncFn          func(ctx context.Context) error
}

func (m *mockCatalogService) UpsertCourse(ctx context.Context, params service.CourseParams) (*model.Course, error) {
	if m.upsertCourseFn != nil {
		return m.upsertCourseFn(ctx, params)
	}
	return nil, nil
}

func (m *mockCatalogService) GetCourse(ctx context.Context, code string) (*model.Course, error) {
	if m.getCourseFn != nil {
		return m.getCourseFn(ctx, code)
	}
	return nil, nil
}

func (m *mockCatalogService) ListCourses(ctx context.Context, activeOnly bool) ([]model.Course, error) {
	if m.listCoursesFn != nil {
		return m.listCoursesFn(ctx, activeOnly)
	}
	return []model.Course{}, nil
}

func (m *mockCatalogService) DeactivateCourse(ctx context.Context, code string) error {
	if m.deactivateCourseFn != nil {
		return m.deactivateCourseFn(ctx, code)
	}
	return nil
}

func (m *mockCatalogService) PrerequisiteChain(ctx context.Context, code string) ([]audit.Edge, error) {
	if m.prerequisiteChainFn != nil {
		return m.prerequisiteChainFn(ctx, code)
	}
	return []audit.Edge{}, nil
}

func (m *mockCatalogService) ListGECategories(ctx context.Context) ([]model.GECategory, error) {
	if m.listGECategoriesFn != nil {
		return m.listGECategoriesFn(ctx)
	}
	return []model.GECategory{}, nil
}

func (m *mockCatalogService) UpsertGECategory(ctx context.Context, category model.GECategory) (*model.GECategory, error) {
	if m.upsertGECategoryFn != nil {
		return m.upsertGECategoryFn(ctx, category)
	}
	return nil, nil
}

func (m *mockCatalogService) DeleteGECategory(ctx context.Context, code string) error {
	if m.deleteGECategoryFn != nil {
		return m.deleteGECategoryFn(ctx, code)
	}
	return nil
}

func (m *mockCatalogService) ReplaceGEAssignments(ctx context.Context, categoryCode string, courseCodes []string) error {
	if m.replaceAssignmentsFn != nil {
		return m.replaceAssignmentsFn(ctx, categoryCode, courseCodes)
	}
	return nil
}

func (m *mockCatalogService) Search(ctx context.Context, params service.SearchParams) ([]typesense.CourseDocument, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, params)
	}
	return []typesense.CourseDocument{}, nil
}

func (m *mockCatalogService) TriggerSync(ctx context.Context) error {
	if m.triggerSyncFn != nil {
		return m.triggerSyncFn(ctx)
	}
	return nil
}

type mockMarketService struct {
	conductFn func(ctx context.Context, params service.MarketResearchParams) (*service.MarketResearchResult, error)
	latestFn  func(ctx context.Context, emphasis string) (*service.MarketResearchResult, error)
}

func (m *mockMarketService) Conduct(ctx context.Context, params service.MarketResearchParams) (*service.MarketResearchResult, error) {
	if m.conductFn != nil {
		return m.conductFn(ctx, params)
	}
	return nil, nil
}

func (m *mockMarketService) Latest(ctx context.Context, emphasis string) (*service.MarketResearchResult, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, emphasis)
	}
	return nil, nil
}

type mockAuthService struct {
	getAuthorizationURLFn func(state string) (string, error)
	handleCallbackFn      func(ctx context.Context, code string) (*model.User, *model.Session, error)
	validateSessionFn     func(ctx context.Context, sessionID int64) (*model.User, error)
	logoutFn              func(ctx context.Context, sessionID int64) error
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	if m.getAuthorizationURLFn != nil {
		return m.getAuthorizationURLFn(state)
	}
	return "https://auth.example.com/authorize?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return &model.User{ID: sessionID, Name: "Test User", Email: "test@example.com"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID int64) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockUserService struct {
	getFn           func(ctx context.Context, userID int64) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID int64, name string, avatarURL *string) (*model.User, error)
	deleteFn        func(ctx context.Context, userID int64) error
}

func (m *mockUserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return &model.User{ID: userID, Name: "Test User", Email: "test@example.com"}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID int64, name string, avatarURL *string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, name, avatarURL)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}
