package store

import (
	"pathwise.app/audit/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.q)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.q)
}

func (s *Stores) Plans() PlanStore {
	return newPlanStore(s.q)
}

func (s *Stores) Reports() ReportStore {
	return newReportStore(s.q)
}

func (s *Stores) Markets() MarketStore {
	return newMarketStore(s.q)
}

func (s *Stores) Courses() CourseStore {
	return newCourseStore(s.q)
}

func (s *Stores) GECategories() GECategoryStore {
	return newGECategoryStore(s.q)
}
