package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/common/id"
	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/service"
)

var _ = Describe("CatalogService", func() {
	var (
		svc         service.CatalogService
		mockCourses *mockCourseStore
		mockGE      *mockGECategoryStore
		producer    *mockProducer
		facts       *mockCatalogFacts
		search      *mockSearchClient
		ctx         context.Context
	)

	newService := func(search typesense.Client) service.CatalogService {
		return service.NewCatalogService(mockCourses, mockGE, &mockTxRunner{
			withTxFn: func(ctx context.Context, fn func(stores service.StoreProvider) error) error {
				return fn(&mockStoreProvider{courses: mockCourses, geCategories: mockGE})
			},
		}, producer, facts, search)
	}

	BeforeEach(func() {
		ctx = context.Background()
		mockCourses = &mockCourseStore{}
		mockGE = &mockGECategoryStore{}
		producer = &mockProducer{}
		facts = &mockCatalogFacts{}
		search = &mockSearchClient{}
		svc = newService(nil)
		Expect(id.Init(1)).To(Succeed())
	})

	Describe("UpsertCourse", func() {
		BeforeEach(func() {
			mockGE.listFn = func(_ context.Context) ([]model.GECategory, error) {
				return []model.GECategory{{Code: "QL", Name: "Quantitative Literacy", MinCredits: 3}}, nil
			}
		})

		It("derives level and discipline from the code and writes everything in one transaction", func() {
			var course *model.Course
			mockCourses.upsertFn = func(_ context.Context, c *model.Course) error {
				course = c
				return nil
			}
			var prereqs []model.CoursePrerequisite
			mockCourses.replacePrerequisitesFn = func(_ context.Context, _ string, p []model.CoursePrerequisite) error {
				prereqs = p
				return nil
			}
			var assigned []string
			mockGE.replaceCourseAssignmentsFn = func(_ context.Context, courseCode string, categories []string) error {
				Expect(courseCode).To(Equal("CS 3400"))
				assigned = categories
				return nil
			}

			created, err := svc.UpsertCourse(ctx, service.CourseParams{
				Code:          "cs 3400",
				Title:         "Operating Systems",
				Credits:       3,
				Prerequisites: []service.PrerequisiteParams{{Code: "cs 2420"}},
				GECategories:  []string{"QL"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created.Code).To(Equal("CS 3400"))
			Expect(created.Level).To(Equal(int32(3400)))
			Expect(created.Discipline).To(Equal("CS"))
			Expect(created.Active).To(BeTrue())

			Expect(course).NotTo(BeNil())
			Expect(prereqs).To(HaveLen(1))
			Expect(prereqs[0].RequirementCode).To(Equal("CS 2420"))
			Expect(prereqs[0].Kind).To(Equal(model.RequirementKindPrerequisite))
			Expect(assigned).To(Equal([]string{"QL"}))

			Expect(producer.enqueued).To(HaveLen(1))
			Expect(producer.enqueued[0].TaskType).To(Equal(queue.TaskTypeCatalogSync))
		})

		It("rejects a course requiring itself", func() {
			_, err := svc.UpsertCourse(ctx, service.CourseParams{
				Code:          "CS 3400",
				Title:         "Operating Systems",
				Credits:       3,
				Prerequisites: []service.PrerequisiteParams{{Code: "CS 3400"}},
			})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cannot require itself"))
			Expect(mockCourses.upsertCalls).To(BeZero())
		})

		It("rejects assignments to undefined categories", func() {
			_, err := svc.UpsertCourse(ctx, service.CourseParams{
				Code:         "CS 3400",
				Title:        "Operating Systems",
				Credits:      3,
				GECategories: []string{"HU"},
			})

			Expect(err).To(MatchError(service.ErrCategoryNotDefined))
			Expect(mockCourses.upsertCalls).To(BeZero())
		})

		It("rejects codes without a discipline prefix", func() {
			_, err := svc.UpsertCourse(ctx, service.CourseParams{
				Code:    "3400",
				Title:   "Mystery",
				Credits: 3,
			})
			Expect(err).To(HaveOccurred())
		})

		It("still returns the course when the sync enqueue fails", func() {
			producer.enqueueFn = func(_ context.Context, _ queue.TaskMessage) error {
				return errors.New("stream unavailable")
			}

			created, err := svc.UpsertCourse(ctx, service.CourseParams{
				Code:    "CS 3400",
				Title:   "Operating Systems",
				Credits: 3,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created).NotTo(BeNil())
			Expect(producer.enqueued).To(BeEmpty())
		})
	})

	Describe("DeactivateCourse", func() {
		It("retires the course and queues a projection rebuild", func() {
			mockCourses.getByCodeFn = func(_ context.Context, code string) (*model.Course, error) {
				return &model.Course{Code: code, Active: true}, nil
			}
			var retired string
			mockCourses.deactivateFn = func(_ context.Context, code string) error {
				retired = code
				return nil
			}

			Expect(svc.DeactivateCourse(ctx, "cs 3400")).To(Succeed())
			Expect(retired).To(Equal("CS 3400"))
			Expect(producer.enqueued).To(HaveLen(1))
		})

		It("returns not found for unknown courses", func() {
			err := svc.DeactivateCourse(ctx, "CS 9999")
			Expect(err).To(MatchError(service.ErrCourseNotFound))
		})
	})

	Describe("PrerequisiteChain", func() {
		It("traverses from the requested course", func() {
			mockCourses.getByCodeFn = func(_ context.Context, code string) (*model.Course, error) {
				return &model.Course{Code: code}, nil
			}
			facts.edgesForFn = func(_ context.Context, codes []string) ([]audit.Edge, error) {
				Expect(codes).To(Equal([]string{"CS 3400"}))
				return []audit.Edge{{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite}}, nil
			}

			edges, err := svc.PrerequisiteChain(ctx, "cs 3400")

			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(1))
		})

		It("returns not found for unknown courses", func() {
			_, err := svc.PrerequisiteChain(ctx, "CS 9999")
			Expect(err).To(MatchError(service.ErrCourseNotFound))
		})
	})

	Describe("UpsertGECategory", func() {
		It("rejects non-positive credit minimums", func() {
			_, err := svc.UpsertGECategory(ctx, model.GECategory{Code: "QL", Name: "Quantitative Literacy"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("min_credits"))
		})
	})

	Describe("ReplaceGEAssignments", func() {
		It("requires the category to be defined", func() {
			mockGE.listFn = func(_ context.Context) ([]model.GECategory, error) {
				return []model.GECategory{}, nil
			}

			err := svc.ReplaceGEAssignments(ctx, "QL", []string{"MATH 3040"})
			Expect(err).To(MatchError(service.ErrCategoryNotDefined))
		})

		It("normalizes course codes before writing", func() {
			mockGE.listFn = func(_ context.Context) ([]model.GECategory, error) {
				return []model.GECategory{{Code: "QL", Name: "Quantitative Literacy", MinCredits: 3}}, nil
			}
			var captured []string
			mockGE.replaceAssignmentsFn = func(_ context.Context, categoryCode string, courseCodes []string) error {
				Expect(categoryCode).To(Equal("QL"))
				captured = courseCodes
				return nil
			}

			Expect(svc.ReplaceGEAssignments(ctx, "QL", []string{" math 3040 "})).To(Succeed())
			Expect(captured).To(Equal([]string{"MATH 3040"}))
		})
	})

	Describe("Search", func() {
		It("is unavailable when no search backend is configured", func() {
			_, err := svc.Search(ctx, service.SearchParams{Query: "systems"})
			Expect(err).To(MatchError(service.ErrSearchUnavailable))
		})

		It("passes the query and filters through", func() {
			svc = newService(search)
			var gotQuery string
			var gotOpts typesense.SearchOptions
			search.searchFn = func(_ context.Context, query string, opts typesense.SearchOptions) ([]typesense.CourseDocument, error) {
				gotQuery = query
				gotOpts = opts
				return []typesense.CourseDocument{{Code: "CS 3400", Title: "Operating Systems"}}, nil
			}

			docs, err := svc.Search(ctx, service.SearchParams{
				Query:      "operating",
				Discipline: "CS",
				MaxLevel:   4000,
				Limit:      5,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(gotQuery).To(Equal("operating"))
			Expect(gotOpts.Discipline).To(Equal("CS"))
			Expect(gotOpts.MaxLevel).To(Equal(int32(4000)))
			Expect(gotOpts.Limit).To(Equal(5))
		})

		It("requires a query", func() {
			svc = newService(search)
			_, err := svc.Search(ctx, service.SearchParams{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("TriggerSync", func() {
		It("enqueues a catalog sync task", func() {
			Expect(svc.TriggerSync(ctx)).To(Succeed())
			Expect(producer.enqueued).To(HaveLen(1))
			Expect(producer.enqueued[0].TaskType).To(Equal(queue.TaskTypeCatalogSync))
			Expect(producer.enqueued[0].Attempt).To(Equal(1))
		})
	})
})
