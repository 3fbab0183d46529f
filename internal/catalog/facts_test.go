package catalog_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/common/arangodb"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/catalog"
	"pathwise.app/audit/internal/model"
)

var _ = Describe("FactsProvider", func() {
	var (
		ctx        context.Context
		courses    *mockCourseStore
		categories *mockGECategoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		courses = &mockCourseStore{}
		categories = &mockGECategoryStore{}
	})

	Describe("FactsFor", func() {
		It("maps graph links, categories and assignments into engine facts", func() {
			graph := &mockGraphClient{
				traverseFromFn: func(_ context.Context, _ []string, _ arangodb.TraversalOptions) ([]arangodb.GraphCourse, []arangodb.GraphLink, error) {
					return nil, []arangodb.GraphLink{
						{Course: "CS 2420", Requirement: "CS 1400", Kind: "prerequisite"},
						{Course: "CS 2420", Requirement: "CS 2425", Kind: "corequisite"},
					}, nil
				},
			}
			categories.listFn = func(_ context.Context) ([]model.GECategory, error) {
				return []model.GECategory{
					{Code: "WC", Name: "Written Communication", MinCredits: 6},
				}, nil
			}
			categories.listAssignmentsFn = func(_ context.Context) ([]model.GEAssignment, error) {
				return []model.GEAssignment{
					{CourseCode: "ENGL 1010", CategoryCode: "WC"},
					{CourseCode: "ENGL 2010", CategoryCode: "WC"},
				}, nil
			}

			provider := catalog.NewFactsProvider(courses, categories, graph)
			facts, err := provider.FactsFor(ctx, []string{"CS 2420"})

			Expect(err).NotTo(HaveOccurred())
			Expect(facts.Edges).To(Equal([]audit.Edge{
				{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
				{Course: "CS 2420", Requires: "CS 2425", Kind: audit.EdgeCorequisite},
			}))
			Expect(facts.GECategories).To(Equal([]audit.GECategory{
				{Code: "WC", Name: "Written Communication", CreditsRequired: 6},
			}))
			Expect(facts.GEAssignments).To(Equal(map[string][]string{
				"ENGL 1010": {"WC"},
				"ENGL 2010": {"WC"},
			}))
		})

		It("falls back to the catalog tables when the graph traversal fails", func() {
			graph := &mockGraphClient{
				traverseFromFn: func(_ context.Context, _ []string, _ arangodb.TraversalOptions) ([]arangodb.GraphCourse, []arangodb.GraphLink, error) {
					return nil, nil, errors.New("connection refused")
				},
			}
			courses.listPrerequisitesFn = func(_ context.Context, codes []string) ([]model.CoursePrerequisite, error) {
				if len(codes) == 1 && codes[0] == "CS 2420" {
					return []model.CoursePrerequisite{
						{CourseCode: "CS 2420", RequirementCode: "CS 1400", Kind: model.RequirementKindPrerequisite},
					}, nil
				}
				return nil, nil
			}

			provider := catalog.NewFactsProvider(courses, categories, graph)
			facts, err := provider.FactsFor(ctx, []string{"CS 2420"})

			Expect(err).NotTo(HaveOccurred())
			Expect(facts.Edges).To(Equal([]audit.Edge{
				{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
			}))
		})

		It("surfaces category listing failures", func() {
			categories.listFn = func(_ context.Context) ([]model.GECategory, error) {
				return nil, errors.New("boom")
			}

			provider := catalog.NewFactsProvider(courses, categories, nil)
			_, err := provider.FactsFor(ctx, nil)

			Expect(err).To(MatchError(ContainSubstring("list ge categories")))
		})
	})

	Describe("EdgesFor without a graph store", func() {
		It("walks requirement chains breadth-first until they bottom out", func() {
			prereqs := map[string][]model.CoursePrerequisite{
				"CS 3400": {{CourseCode: "CS 3400", RequirementCode: "CS 2420", Kind: model.RequirementKindPrerequisite}},
				"CS 2420": {{CourseCode: "CS 2420", RequirementCode: "CS 1400", Kind: model.RequirementKindPrerequisite}},
			}
			courses.listPrerequisitesFn = func(_ context.Context, codes []string) ([]model.CoursePrerequisite, error) {
				var rows []model.CoursePrerequisite
				for _, code := range codes {
					rows = append(rows, prereqs[code]...)
				}
				return rows, nil
			}

			provider := catalog.NewFactsProvider(courses, categories, nil)
			edges, err := provider.EdgesFor(ctx, []string{"CS 3400"})

			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(Equal([]audit.Edge{
				{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
				{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
			}))
			// One query per depth level, then a final empty frontier.
			Expect(courses.listPrerequisitesCalls).To(HaveLen(3))
		})

		It("normalizes and dedupes the starting codes", func() {
			provider := catalog.NewFactsProvider(courses, categories, nil)
			_, err := provider.EdgesFor(ctx, []string{"cs  3400", "CS 3400", "  "})

			Expect(err).NotTo(HaveOccurred())
			Expect(courses.listPrerequisitesCalls).To(Equal([][]string{{"CS 3400"}}))
		})

		It("terminates on catalog cycles instead of looping", func() {
			prereqs := map[string][]model.CoursePrerequisite{
				"CS 3400": {{CourseCode: "CS 3400", RequirementCode: "CS 2420", Kind: model.RequirementKindPrerequisite}},
				"CS 2420": {{CourseCode: "CS 2420", RequirementCode: "CS 3400", Kind: model.RequirementKindPrerequisite}},
			}
			courses.listPrerequisitesFn = func(_ context.Context, codes []string) ([]model.CoursePrerequisite, error) {
				var rows []model.CoursePrerequisite
				for _, code := range codes {
					rows = append(rows, prereqs[code]...)
				}
				return rows, nil
			}

			provider := catalog.NewFactsProvider(courses, categories, nil)
			edges, err := provider.EdgesFor(ctx, []string{"CS 3400"})

			Expect(err).NotTo(HaveOccurred())
			Expect(edges).To(HaveLen(2))
		})
	})
})
