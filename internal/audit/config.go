package audit

// Config carries every institutional threshold the engine evaluates against.
// The numbers are policy, not code: they arrive from configuration so the
// rule set can change without recompiling. A zero combined or per-area
// minimum disables that particular check; the degree-level minimums are
// always required.
type Config struct {
	// Degree-level minimums.
	TotalCredits         float64 `json:"total_credits"`
	UpperDivisionCredits float64 `json:"upper_division_credits"`

	// Discipline diversity across concentration areas.
	MinDisciplines int `json:"min_disciplines"`

	// Per-area concentration minimums. Zero disables.
	AreaMinCredits      float64 `json:"area_min_credits"`
	AreaMinUpperCredits float64 `json:"area_min_upper_credits"`

	// Combined minimums across all concentration areas. Zero disables.
	CombinedMinCredits      float64 `json:"combined_min_credits"`
	CombinedMinUpperCredits float64 `json:"combined_min_upper_credits"`

	// Membership caps. A course may sit in at most MaxAreaMemberships areas
	// and, separately, map to at most MaxPLOMappings learning outcomes.
	MaxAreaMemberships int `json:"max_area_memberships"`
	MaxPLOMappings     int `json:"max_plo_mappings"`

	// Catalog numbers at or above this are upper division.
	UpperDivisionLevel int `json:"upper_division_level"`
}

// Validate reports the first unusable threshold. The orchestrator calls this
// before any checker runs; a broken rule set fails the whole request.
func (c Config) Validate() error {
	if c.TotalCredits <= 0 {
		return newConfigurationError("total credit requirement must be positive, got %g", c.TotalCredits)
	}
	if c.UpperDivisionCredits < 0 {
		return newConfigurationError("upper-division credit requirement cannot be negative, got %g", c.UpperDivisionCredits)
	}
	if c.UpperDivisionCredits > c.TotalCredits {
		return newConfigurationError("upper-division requirement %g exceeds total requirement %g", c.UpperDivisionCredits, c.TotalCredits)
	}
	if c.MinDisciplines < 1 {
		return newConfigurationError("minimum discipline count must be at least 1, got %d", c.MinDisciplines)
	}
	if c.AreaMinCredits < 0 || c.AreaMinUpperCredits < 0 || c.CombinedMinCredits < 0 || c.CombinedMinUpperCredits < 0 {
		return newConfigurationError("concentration minimums cannot be negative")
	}
	if c.AreaMinUpperCredits > 0 && c.AreaMinCredits > 0 && c.AreaMinUpperCredits > c.AreaMinCredits {
		return newConfigurationError("per-area upper-division minimum %g exceeds per-area total minimum %g", c.AreaMinUpperCredits, c.AreaMinCredits)
	}
	if c.MaxAreaMemberships < 1 {
		return newConfigurationError("area membership cap must be at least 1, got %d", c.MaxAreaMemberships)
	}
	if c.MaxPLOMappings < 1 {
		return newConfigurationError("learning outcome mapping cap must be at least 1, got %d", c.MaxPLOMappings)
	}
	if c.UpperDivisionLevel < 1000 {
		return newConfigurationError("upper-division level cutoff must be a four-digit catalog number, got %d", c.UpperDivisionLevel)
	}
	return nil
}
