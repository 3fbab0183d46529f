package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/common/id"
	"pathwise.app/audit/core/config"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
	"pathwise.app/audit/internal/store"
)

func testRules() config.RulesConfig {
	return config.RulesConfig{
		TotalCredits:            120,
		UpperDivisionCredits:    40,
		MinDisciplines:          3,
		AreaMinCredits:          14,
		AreaMinUpperCredits:     7,
		CombinedMinCredits:      42,
		CombinedMinUpperCredits: 21,
		MaxAreasPerCourse:       1,
		MaxPLOsPerCourse:        3,
		UpperDivisionLevel:      3000,
		SemesterCreditCap:       15,
		MaxSemesters:            8,
	}
}

var _ = Describe("AuditService", func() {
	var (
		svc         service.AuditService
		mockPlans   *mockPlanStore
		mockReports *mockReportStore
		mockCourses *mockCourseStore
		facts       *mockCatalogFacts
		ctx         context.Context
	)

	newService := func(rules config.RulesConfig) service.AuditService {
		return service.NewAuditService(mockPlans, mockReports, mockCourses, &mockTxRunner{
			withTxFn: func(ctx context.Context, fn func(stores service.StoreProvider) error) error {
				return fn(&mockStoreProvider{plans: mockPlans, reports: mockReports})
			},
		}, facts, rules)
	}

	BeforeEach(func() {
		ctx = context.Background()
		mockPlans = &mockPlanStore{}
		mockReports = &mockReportStore{}
		mockCourses = &mockCourseStore{}
		facts = &mockCatalogFacts{}

		catalog := map[string]*model.Course{
			"CS 1400":   {Code: "CS 1400", Title: "Programming I", Credits: 3, Level: 1400, Discipline: "CS", Active: true},
			"CS 2420":   {Code: "CS 2420", Title: "Data Structures", Credits: 4, Level: 2420, Discipline: "CS", Active: true},
			"CS 3400":   {Code: "CS 3400", Title: "Operating Systems", Credits: 3, Level: 3400, Discipline: "CS", Active: true},
			"MATH 3040": {Code: "MATH 3040", Title: "Statistics", Credits: 3, Level: 3040, Discipline: "MATH", Active: true},
		}
		mockCourses.getByCodeFn = func(_ context.Context, code string) (*model.Course, error) {
			if c, ok := catalog[code]; ok {
				return c, nil
			}
			return nil, store.ErrNotFound
		}

		svc = newService(testRules())
		Expect(id.Init(1)).To(Succeed())
	})

	Describe("CalculateCredits", func() {
		It("sums catalog credits by division", func() {
			summary, err := svc.CalculateCredits(ctx, []service.CourseEntry{
				{Code: "CS 1400"},
				{Code: "CS 3400"},
			}, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TotalCredits).To(Equal(6.0))
			Expect(summary.UpperDivisionCredits).To(Equal(3.0))
			Expect(summary.LowerDivisionCredits).To(Equal(3.0))
		})

		It("counts planned work only when projected", func() {
			entries := []service.CourseEntry{
				{Code: "CS 1400"},
				{Code: "CS 3400", Status: "planned"},
			}

			actual, err := svc.CalculateCredits(ctx, entries, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(actual.TotalCredits).To(Equal(3.0))

			projected, err := svc.CalculateCredits(ctx, entries, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(projected.TotalCredits).To(Equal(6.0))
		})

		It("fails when a course is missing from the catalog", func() {
			_, err := svc.CalculateCredits(ctx, []service.CourseEntry{
				{Code: "CS 1400"},
				{Code: "CS 9999"},
			}, false)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("courses not in catalog: CS 9999"))
		})
	})

	Describe("CheckPrerequisites", func() {
		BeforeEach(func() {
			facts.edgesForFn = func(_ context.Context, codes []string) ([]audit.Edge, error) {
				Expect(codes).To(Equal([]string{"CS 3400"}))
				return []audit.Edge{
					{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
					{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
				}, nil
			}
		})

		It("reports the unmet portion of the chain", func() {
			result, err := svc.CheckPrerequisites(ctx, 9, " cs 3400 ", []service.CourseEntry{
				{Code: "CS 1400", Grade: strPtr("A")},
			}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeFalse())
			Expect(result.UnmetChains).To(Equal([][]string{{"CS 2420", "CS 3400"}}))
		})

		It("is satisfied when completed work covers every requirement", func() {
			result, err := svc.CheckPrerequisites(ctx, 9, "CS 3400", []service.CourseEntry{
				{Code: "CS 1400", Grade: strPtr("A")},
				{Code: "CS 2420", Grade: strPtr("B")},
			}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("checks against a stored plan", func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				Expect(planID).To(Equal(int64(55)))
				return &model.Plan{ID: 55, UserID: 9}, nil
			}
			mockPlans.loadFullFn = func(_ context.Context, p *model.Plan) error {
				p.Areas = []model.PlanArea{
					{Name: "Computing", Courses: []model.PlanCourse{
						{Code: "CS 1400", Credits: 3, Status: "completed", Grade: strPtr("A")},
						{Code: "CS 2420", Credits: 4, Status: "completed", Grade: strPtr("B")},
					}},
				}
				return nil
			}

			planID := int64(55)
			result, err := svc.CheckPrerequisites(ctx, 9, "CS 3400", nil, &planID)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("hides other students' plans", func() {
			mockPlans.getByIDFn = func(_ context.Context, _ int64) (*model.Plan, error) {
				return &model.Plan{ID: 55, UserID: 8}, nil
			}

			planID := int64(55)
			_, err := svc.CheckPrerequisites(ctx, 9, "CS 3400", nil, &planID)
			Expect(err).To(MatchError(service.ErrPlanNotFound))
		})

		It("rejects a completed list combined with a plan reference", func() {
			planID := int64(55)
			_, err := svc.CheckPrerequisites(ctx, 9, "CS 3400", []service.CourseEntry{
				{Code: "CS 1400"},
			}, &planID)
			Expect(err).To(MatchError(service.ErrInvalidInput))
		})

		It("requires a target course", func() {
			_, err := svc.CheckPrerequisites(ctx, 9, "  ", nil, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateConcentrations", func() {
		It("resolves courses and sorts areas by name", func() {
			result, err := svc.ValidateConcentrations(ctx, map[string][]service.CourseEntry{
				"Computing": {{Code: "CS 3400"}},
				"Analytics": {{Code: "MATH 3040"}},
			}, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Areas).To(HaveLen(2))
			Expect(result.Areas[0].Name).To(Equal("Analytics"))
			Expect(result.Areas[1].Name).To(Equal("Computing"))
			Expect(result.Areas[1].TotalCredits).To(Equal(3.0))
			Expect(result.Areas[1].MeetsMinimum).To(BeFalse())
			Expect(result.MeetsCombinedMinimum).To(BeFalse())
		})

		It("applies threshold overrides", func() {
			overrides := &service.ThresholdOverrides{
				AreaMinCredits:          floatPtr(7),
				AreaMinUpperCredits:     floatPtr(3),
				CombinedMinCredits:      floatPtr(7),
				CombinedMinUpperCredits: floatPtr(3),
			}

			result, err := svc.ValidateConcentrations(ctx, map[string][]service.CourseEntry{
				"Computing": {{Code: "CS 3400"}, {Code: "CS 2420"}},
			}, nil, overrides)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Areas[0].TotalCredits).To(Equal(7.0))
			Expect(result.Areas[0].MeetsMinimum).To(BeTrue())
			Expect(result.MeetsCombinedMinimum).To(BeTrue())
		})
	})

	Describe("TrackGeneralEducation", func() {
		It("matches plan courses against catalog assignments", func() {
			facts.factsForFn = func(_ context.Context, codes []string) (audit.Facts, error) {
				Expect(codes).To(ContainElement("MATH 3040"))
				return audit.Facts{
					GECategories: []audit.GECategory{
						{Code: "QL", Name: "Quantitative Literacy", CreditsRequired: 3},
					},
					GEAssignments: map[string][]string{"MATH 3040": {"QL"}},
				}, nil
			}

			result, err := svc.TrackGeneralEducation(ctx, []service.CourseEntry{
				{Code: "MATH 3040", Grade: strPtr("B+")},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Complete).To(BeTrue())
			Expect(result.Categories).To(HaveLen(1))
			Expect(result.Categories[0].CreditsEarned).To(Equal(3.0))
			Expect(result.Categories[0].Status).To(Equal(audit.GEComplete))
		})
	})

	Describe("ValidateNow", func() {
		BeforeEach(func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				return &model.Plan{ID: planID, UserID: 10, Status: model.PlanStatusDraft}, nil
			}
			mockPlans.loadFullFn = func(_ context.Context, p *model.Plan) error {
				p.Areas = []model.PlanArea{
					{Name: "Computing", Courses: []model.PlanCourse{
						{Code: "CS 3400", Credits: 3, Status: "completed", Grade: strPtr("A")},
					}},
				}
				return nil
			}
		})

		It("persists the finished report in one transaction", func() {
			var created *model.ValidationReport
			mockReports.createFn = func(_ context.Context, r *model.ValidationReport) error {
				created = r
				return nil
			}
			var completedPassed bool
			var payload []byte
			mockReports.markCompleteFn = func(_ context.Context, _ int64, passed bool, report []byte) error {
				completedPassed = passed
				payload = report
				return nil
			}
			mockReports.getByIDFn = func(_ context.Context, reportID int64) (*model.ValidationReport, error) {
				return &model.ValidationReport{ID: reportID, Status: model.ReportStatusComplete}, nil
			}

			report, err := svc.ValidateNow(ctx, 10, 77, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Status).To(Equal(model.ReportStatusComplete))

			Expect(created).NotTo(BeNil())
			Expect(created.Status).To(Equal(model.ReportStatusRunning))
			Expect(created.PlanID).To(Equal(int64(77)))

			// One upper-division course cannot meet the degree minimums; the
			// failure is report content, not an error.
			Expect(completedPassed).To(BeFalse())
			Expect(string(payload)).To(ContainSubstring(`"passed":false`))
			Expect(mockReports.markCompleteCalls).To(Equal(1))
		})

		It("persists nothing when the rules are unusable", func() {
			svc = newService(config.RulesConfig{})

			_, err := svc.ValidateNow(ctx, 10, 77, false)

			Expect(err).To(HaveOccurred())
			Expect(mockReports.createCalls).To(BeZero())
		})

		It("reads another student's plan as not found", func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				return &model.Plan{ID: planID, UserID: 99}, nil
			}

			_, err := svc.ValidateNow(ctx, 10, 77, false)
			Expect(err).To(MatchError(service.ErrPlanNotFound))
		})
	})

	Describe("Progress", func() {
		It("separates earned and in-flight credits", func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				return &model.Plan{ID: planID, UserID: 10, Status: model.PlanStatusDraft}, nil
			}
			mockPlans.loadFullFn = func(_ context.Context, p *model.Plan) error {
				p.Areas = []model.PlanArea{
					{Name: "Computing", Courses: []model.PlanCourse{
						{Code: "CS 1400", Credits: 3, Status: "completed", Grade: strPtr("A")},
						{Code: "CS 3400", Credits: 3, Status: "in_progress"},
					}},
				}
				return nil
			}

			progress, err := svc.Progress(ctx, 10, 77)

			Expect(err).NotTo(HaveOccurred())
			Expect(progress.CreditsEarned).To(Equal(3.0))
			Expect(progress.CreditsInProgress).To(Equal(3.0))
			Expect(progress.CreditsRequired).To(Equal(120.0))
			Expect(progress.CompletionPct).To(Equal(2.5))
		})
	})

	Describe("Sequence", func() {
		It("splits prerequisite pairs across semesters", func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				return &model.Plan{ID: planID, UserID: 10, Status: model.PlanStatusDraft}, nil
			}
			mockPlans.loadFullFn = func(_ context.Context, p *model.Plan) error {
				p.Electives = []model.PlanCourse{
					{Code: "CS 1400", Credits: 3, Status: "planned"},
					{Code: "CS 2420", Credits: 4, Status: "planned"},
				}
				return nil
			}
			facts.edgesForFn = func(_ context.Context, codes []string) ([]audit.Edge, error) {
				return []audit.Edge{
					{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
				}, nil
			}

			sequence, err := svc.Sequence(ctx, 10, 77)

			Expect(err).NotTo(HaveOccurred())
			Expect(sequence.Semesters).To(HaveLen(2))
			Expect(sequence.Semesters[0].Courses).To(Equal([]string{"CS 1400"}))
			Expect(sequence.Semesters[1].Courses).To(Equal([]string{"CS 2420"}))
			Expect(sequence.Overflow).To(BeEmpty())
		})
	})

	Describe("LatestReport", func() {
		BeforeEach(func() {
			mockPlans.getByIDFn = func(_ context.Context, planID int64) (*model.Plan, error) {
				return &model.Plan{ID: planID, UserID: 10, Status: model.PlanStatusSubmitted}, nil
			}
		})

		It("returns the newest report for the plan", func() {
			mockReports.getLatestByPlanFn = func(_ context.Context, planID int64) (*model.ValidationReport, error) {
				return &model.ValidationReport{ID: 5, PlanID: planID, Status: model.ReportStatusComplete}, nil
			}

			report, err := svc.LatestReport(ctx, 10, 77)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.ID).To(Equal(int64(5)))
		})

		It("reports when no audit has run yet", func() {
			_, err := svc.LatestReport(ctx, 10, 77)
			Expect(err).To(MatchError(service.ErrReportNotFound))
		})
	})
})

func floatPtr(f float64) *float64 { return &f }
