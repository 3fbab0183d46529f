package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/model"
)

type courseStore struct {
	q db.Querier
}

func newCourseStore(q db.Querier) CourseStore {
	return &courseStore{q: q}
}

const courseColumns = `code, title, credits, level, discipline, description, active, created_at, updated_at`

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	err := row.Scan(&c.Code, &c.Title, &c.Credits, &c.Level, &c.Discipline,
		&c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *courseStore) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	row := s.q.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = $1`, code)
	return scanCourse(row)
}

func (s *courseStore) Upsert(ctx context.Context, course *model.Course) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO courses (code, title, credits, level, discipline, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			title = EXCLUDED.title,
			credits = EXCLUDED.credits,
			level = EXCLUDED.level,
			discipline = EXCLUDED.discipline,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING `+courseColumns,
		course.Code, course.Title, course.Credits, course.Level, course.Discipline,
		course.Description, course.Active)

	upserted, err := scanCourse(row)
	if err != nil {
		return err
	}
	*course = *upserted
	return nil
}

func (s *courseStore) Deactivate(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `UPDATE courses SET active = FALSE, updated_at = now() WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *courseStore) List(ctx context.Context, activeOnly bool) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY code`
	if activeOnly {
		query = `SELECT ` + courseColumns + ` FROM courses WHERE active ORDER BY code`
	}

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCourses(rows)
}

func (s *courseStore) ListByDiscipline(ctx context.Context, discipline string) ([]model.Course, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE discipline = $1 AND active
		ORDER BY code`, discipline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCourses(rows)
}

func collectCourses(rows pgx.Rows) ([]model.Course, error) {
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		err := rows.Scan(&c.Code, &c.Title, &c.Credits, &c.Level, &c.Discipline,
			&c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *courseStore) ReplacePrerequisites(ctx context.Context, courseCode string, prereqs []model.CoursePrerequisite) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM course_prerequisites WHERE course_code = $1`, courseCode); err != nil {
		return err
	}

	for _, prereq := range prereqs {
		_, err := s.q.Exec(ctx, `
			INSERT INTO course_prerequisites (id, course_code, requirement_code, kind, min_grade)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (course_code, requirement_code, kind) DO NOTHING`,
			prereq.ID, courseCode, prereq.RequirementCode, prereq.Kind, prereq.MinGrade)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *courseStore) ListPrerequisites(ctx context.Context, courseCodes []string) ([]model.CoursePrerequisite, error) {
	if len(courseCodes) == 0 {
		return nil, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, course_code, requirement_code, kind, min_grade
		FROM course_prerequisites
		WHERE course_code = ANY($1)
		ORDER BY course_code, requirement_code`, courseCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPrerequisites(rows)
}

func (s *courseStore) ListAllPrerequisites(ctx context.Context) ([]model.CoursePrerequisite, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, course_code, requirement_code, kind, min_grade
		FROM course_prerequisites
		ORDER BY course_code, requirement_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPrerequisites(rows)
}

func collectPrerequisites(rows pgx.Rows) ([]model.CoursePrerequisite, error) {
	var prereqs []model.CoursePrerequisite
	for rows.Next() {
		var p model.CoursePrerequisite
		if err := rows.Scan(&p.ID, &p.CourseCode, &p.RequirementCode, &p.Kind, &p.MinGrade); err != nil {
			return nil, err
		}
		prereqs = append(prereqs, p)
	}
	return prereqs, rows.Err()
}
