// Package mapper converts persistence models into validation engine inputs.
// The engine is deliberately storage-blind; everything it needs is carried
// across here.
package mapper

import (
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
)

// EnginePlan converts a fully loaded plan into the engine's input shape.
// Projected selects whether planned and in-progress courses count toward
// the requirement totals.
func EnginePlan(plan *model.Plan, projected bool) audit.Plan {
	out := audit.Plan{
		PLOMappings: plan.PLOMappings,
		Market:      marketSignals(plan.Market),
		Projected:   projected,
	}

	out.Areas = make([]audit.Area, 0, len(plan.Areas))
	for _, area := range plan.Areas {
		out.Areas = append(out.Areas, audit.Area{
			Name:    area.Name,
			Courses: engineCourses(area.Courses),
		})
	}

	out.Electives = engineCourses(plan.Electives)

	return out
}

func engineCourses(courses []model.PlanCourse) []audit.Course {
	if len(courses) == 0 {
		return nil
	}
	out := make([]audit.Course, 0, len(courses))
	for _, course := range courses {
		out = append(out, engineCourse(course))
	}
	return out
}

func engineCourse(course model.PlanCourse) audit.Course {
	out := audit.Course{
		Code:    course.Code,
		Title:   course.Title,
		Credits: course.Credits,
		Status:  audit.CourseStatus(course.Status),
		Grade:   course.Grade,
	}
	if course.Term != nil {
		out.Term = *course.Term
	}
	return out
}

func marketSignals(snapshot *model.MarketSnapshot) *audit.MarketSignals {
	if snapshot == nil {
		return nil
	}
	return &audit.MarketSignals{
		SalaryMin:     snapshot.SalaryLow,
		SalaryMax:     snapshot.SalaryHigh,
		GrowthRatePct: snapshot.GrowthPct,
		KeySkills:     snapshot.KeySkills,
	}
}
