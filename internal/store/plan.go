package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/model"
)

type planStore struct {
	q db.Querier
}

func newPlanStore(q db.Querier) PlanStore {
	return &planStore{q: q}
}

const planColumns = `id, user_id, slug, title, emphasis_title, mission_statement, status, created_at, updated_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.UserID, &p.Slug, &p.Title, &p.EmphasisTitle, &p.MissionStatement,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *planStore) GetByID(ctx context.Context, id int64) (*model.Plan, error) {
	row := s.q.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (s *planStore) GetBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	row := s.q.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE slug = $1`, slug)
	return scanPlan(row)
}

// LoadFull attaches areas (with their courses), electives, PLO mappings and
// the market snapshot to a plan shell.
func (s *planStore) LoadFull(ctx context.Context, plan *model.Plan) error {
	areas, err := s.loadAreas(ctx, plan.ID)
	if err != nil {
		return err
	}

	courses, err := s.loadCourses(ctx, plan.ID)
	if err != nil {
		return err
	}

	byArea := make(map[int64][]model.PlanCourse)
	var electives []model.PlanCourse
	for _, course := range courses {
		if course.AreaID == nil {
			electives = append(electives, course)
			continue
		}
		byArea[*course.AreaID] = append(byArea[*course.AreaID], course)
	}

	for i := range areas {
		areas[i].Courses = byArea[areas[i].ID]
	}

	mappings, err := s.loadPLOMappings(ctx, plan.ID)
	if err != nil {
		return err
	}

	market, err := s.loadMarketSnapshot(ctx, plan.EmphasisTitle)
	if err != nil {
		return err
	}

	plan.Areas = areas
	plan.Electives = electives
	plan.PLOMappings = mappings
	plan.Market = market
	return nil
}

func (s *planStore) loadAreas(ctx context.Context, planID int64) ([]model.PlanArea, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, plan_id, name, position
		FROM plan_areas
		WHERE plan_id = $1
		ORDER BY position, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []model.PlanArea
	for rows.Next() {
		var area model.PlanArea
		if err := rows.Scan(&area.ID, &area.PlanID, &area.Name, &area.Position); err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, rows.Err()
}

func (s *planStore) loadCourses(ctx context.Context, planID int64) ([]model.PlanCourse, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, plan_id, area_id, code, title, credits, status, grade, term, position
		FROM plan_courses
		WHERE plan_id = $1
		ORDER BY position, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.PlanCourse
	for rows.Next() {
		var course model.PlanCourse
		err := rows.Scan(&course.ID, &course.PlanID, &course.AreaID, &course.Code, &course.Title,
			&course.Credits, &course.Status, &course.Grade, &course.Term, &course.Position)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (s *planStore) loadPLOMappings(ctx context.Context, planID int64) (map[string][]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT course_code, plo
		FROM plan_plo_mappings
		WHERE plan_id = $1
		ORDER BY course_code, plo`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := make(map[string][]string)
	for rows.Next() {
		var code, plo string
		if err := rows.Scan(&code, &plo); err != nil {
			return nil, err
		}
		mappings[code] = append(mappings[code], plo)
	}
	if len(mappings) == 0 {
		return nil, rows.Err()
	}
	return mappings, rows.Err()
}

// loadMarketSnapshot pulls the newest research for the plan's emphasis.
// Plans without research stay valid; the market section is optional.
func (s *planStore) loadMarketSnapshot(ctx context.Context, emphasis string) (*model.MarketSnapshot, error) {
	if emphasis == "" {
		return nil, nil
	}

	row := s.q.QueryRow(ctx, `
		SELECT `+marketSnapshotColumns+`
		FROM market_snapshots
		WHERE emphasis = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1`, emphasis)

	snap, err := scanMarketSnapshot(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}

func (s *planStore) Create(ctx context.Context, plan *model.Plan) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO plans (id, user_id, slug, title, emphasis_title, mission_statement, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+planColumns,
		plan.ID, plan.UserID, plan.Slug, plan.Title, plan.EmphasisTitle, plan.MissionStatement, plan.Status)

	created, err := scanPlan(row)
	if err != nil {
		return err
	}
	plan.Status = created.Status
	plan.CreatedAt = created.CreatedAt
	plan.UpdatedAt = created.UpdatedAt
	return nil
}

func (s *planStore) Update(ctx context.Context, plan *model.Plan) error {
	row := s.q.QueryRow(ctx, `
		UPDATE plans
		SET title = $2, emphasis_title = $3, mission_statement = $4, status = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+planColumns,
		plan.ID, plan.Title, plan.EmphasisTitle, plan.MissionStatement, plan.Status)

	updated, err := scanPlan(row)
	if err != nil {
		return err
	}
	plan.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *planStore) UpdateStatus(ctx context.Context, id int64, status model.PlanStatus) error {
	tag, err := s.q.Exec(ctx, `UPDATE plans SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *planStore) Delete(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	return err
}

func (s *planStore) ListByUser(ctx context.Context, userID int64) ([]model.Plan, error) {
	rows, err := s.q.Query(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		err := rows.Scan(&p.ID, &p.UserID, &p.Slug, &p.Title, &p.EmphasisTitle, &p.MissionStatement,
			&p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ReplaceAreas swaps the full set of concentration areas. Area courses ride
// along via the area_id cascade; electives (area_id NULL) are untouched.
func (s *planStore) ReplaceAreas(ctx context.Context, planID int64, areas []model.PlanArea) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM plan_areas WHERE plan_id = $1`, planID); err != nil {
		return err
	}

	for _, area := range areas {
		_, err := s.q.Exec(ctx, `
			INSERT INTO plan_areas (id, plan_id, name, position)
			VALUES ($1, $2, $3, $4)`,
			area.ID, planID, area.Name, area.Position)
		if err != nil {
			return err
		}

		for _, course := range area.Courses {
			if err := s.insertCourse(ctx, planID, &area.ID, course); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *planStore) ReplaceElectives(ctx context.Context, planID int64, electives []model.PlanCourse) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM plan_courses WHERE plan_id = $1 AND area_id IS NULL`, planID); err != nil {
		return err
	}

	for _, course := range electives {
		if err := s.insertCourse(ctx, planID, nil, course); err != nil {
			return err
		}
	}
	return nil
}

func (s *planStore) insertCourse(ctx context.Context, planID int64, areaID *int64, course model.PlanCourse) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO plan_courses (id, plan_id, area_id, code, title, credits, status, grade, term, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		course.ID, planID, areaID, course.Code, course.Title, course.Credits,
		course.Status, course.Grade, course.Term, course.Position)
	return err
}

func (s *planStore) ReplacePLOMappings(ctx context.Context, planID int64, mappings map[string][]string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM plan_plo_mappings WHERE plan_id = $1`, planID); err != nil {
		return err
	}

	for code, plos := range mappings {
		for _, plo := range plos {
			_, err := s.q.Exec(ctx, `
				INSERT INTO plan_plo_mappings (plan_id, course_code, plo)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				planID, code, plo)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

