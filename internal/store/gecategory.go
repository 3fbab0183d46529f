package store

import (
	"context"

	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/model"
)

type geCategoryStore struct {
	q db.Querier
}

func newGECategoryStore(q db.Querier) GECategoryStore {
	return &geCategoryStore{q: q}
}

func (s *geCategoryStore) List(ctx context.Context) ([]model.GECategory, error) {
	rows, err := s.q.Query(ctx, `SELECT code, name, min_credits FROM ge_categories ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.GECategory
	for rows.Next() {
		var cat model.GECategory
		if err := rows.Scan(&cat.Code, &cat.Name, &cat.MinCredits); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (s *geCategoryStore) Upsert(ctx context.Context, category *model.GECategory) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO ge_categories (code, name, min_credits)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			min_credits = EXCLUDED.min_credits`,
		category.Code, category.Name, category.MinCredits)
	return err
}

func (s *geCategoryStore) Delete(ctx context.Context, code string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM ge_categories WHERE code = $1`, code)
	return err
}

func (s *geCategoryStore) ListAssignments(ctx context.Context) ([]model.GEAssignment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT course_code, category_code
		FROM course_ge_assignments
		ORDER BY category_code, course_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.GEAssignment
	for rows.Next() {
		var a model.GEAssignment
		if err := rows.Scan(&a.CourseCode, &a.CategoryCode); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *geCategoryStore) ReplaceAssignments(ctx context.Context, categoryCode string, courseCodes []string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM course_ge_assignments WHERE category_code = $1`, categoryCode); err != nil {
		return err
	}

	for _, code := range courseCodes {
		_, err := s.q.Exec(ctx, `
			INSERT INTO course_ge_assignments (course_code, category_code)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			code, categoryCode)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCourseAssignments is the course-centric counterpart: it swaps the
// categories one course satisfies without touching other courses.
func (s *geCategoryStore) ReplaceCourseAssignments(ctx context.Context, courseCode string, categoryCodes []string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM course_ge_assignments WHERE course_code = $1`, courseCode); err != nil {
		return err
	}

	for _, code := range categoryCodes {
		_, err := s.q.Exec(ctx, `
			INSERT INTO course_ge_assignments (course_code, category_code)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			courseCode, code)
		if err != nil {
			return err
		}
	}
	return nil
}
