package mapper_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/mapper"
	"pathwise.app/audit/internal/model"
)

var _ = Describe("EnginePlan", func() {
	It("carries areas, electives, mappings and market signals across", func() {
		gradeA := "A"
		term := "2026 Spring"
		areaID := int64(11)

		plan := &model.Plan{
			ID:            42,
			UserID:        7,
			Slug:          "software-development",
			Title:         "My Degree Plan",
			EmphasisTitle: "Software Development",
			Status:        model.PlanStatusSubmitted,
			Areas: []model.PlanArea{
				{
					ID:     11,
					PlanID: 42,
					Name:   "Computer Science",
					Courses: []model.PlanCourse{
						{PlanID: 42, AreaID: &areaID, Code: "CS 1400", Title: "Programming I", Credits: 4, Status: "completed", Grade: &gradeA, Term: &term},
						{PlanID: 42, AreaID: &areaID, Code: "CS 2420", Credits: 4, Status: "planned"},
					},
				},
			},
			Electives: []model.PlanCourse{
				{PlanID: 42, Code: "ART 1010", Credits: 3, Status: "planned"},
			},
			PLOMappings: map[string][]string{"CS 1400": {"PLO1"}},
			Market: &model.MarketSnapshot{
				ID:         91,
				Emphasis:   "Software Development",
				SalaryLow:  55000,
				SalaryHigh: 98000,
				GrowthPct:  12.5,
				KeySkills:  []string{"Go", "SQL"},
			},
		}

		got := mapper.EnginePlan(plan, true)

		Expect(got.Projected).To(BeTrue())
		Expect(got.Areas).To(Equal([]audit.Area{
			{
				Name: "Computer Science",
				Courses: []audit.Course{
					{Code: "CS 1400", Title: "Programming I", Credits: 4, Status: audit.StatusCompleted, Grade: &gradeA, Term: term},
					{Code: "CS 2420", Credits: 4, Status: audit.StatusPlanned},
				},
			},
		}))
		Expect(got.Electives).To(Equal([]audit.Course{
			{Code: "ART 1010", Credits: 3, Status: audit.StatusPlanned},
		}))
		Expect(got.PLOMappings).To(Equal(map[string][]string{"CS 1400": {"PLO1"}}))
		Expect(got.Market).To(Equal(&audit.MarketSignals{
			SalaryMin:     55000,
			SalaryMax:     98000,
			GrowthRatePct: 12.5,
			KeySkills:     []string{"Go", "SQL"},
		}))
	})

	It("leaves market signals nil when the plan has no snapshot", func() {
		plan := &model.Plan{ID: 1, Areas: []model.PlanArea{{Name: "Biology"}}}

		got := mapper.EnginePlan(plan, false)

		Expect(got.Market).To(BeNil())
		Expect(got.Projected).To(BeFalse())
		Expect(got.Areas).To(HaveLen(1))
		Expect(got.Areas[0].Courses).To(BeNil())
	})
})
