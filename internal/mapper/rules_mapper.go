package mapper

import (
	"pathwise.app/audit/core/config"
	"pathwise.app/audit/internal/audit"
)

// EngineConfig translates deployment rule settings into the validation
// engine's configuration. The engine names limits by what they bound
// (memberships, mappings) rather than by the knob that sets them.
func EngineConfig(rules config.RulesConfig) audit.Config {
	return audit.Config{
		TotalCredits:            rules.TotalCredits,
		UpperDivisionCredits:    rules.UpperDivisionCredits,
		MinDisciplines:          rules.MinDisciplines,
		AreaMinCredits:          rules.AreaMinCredits,
		AreaMinUpperCredits:     rules.AreaMinUpperCredits,
		CombinedMinCredits:      rules.CombinedMinCredits,
		CombinedMinUpperCredits: rules.CombinedMinUpperCredits,
		MaxAreaMemberships:      rules.MaxAreasPerCourse,
		MaxPLOMappings:          rules.MaxPLOsPerCourse,
		UpperDivisionLevel:      rules.UpperDivisionLevel,
	}
}

// EngineSequenceOptions carries the semester packing knobs across.
func EngineSequenceOptions(rules config.RulesConfig) audit.SequenceOptions {
	return audit.SequenceOptions{
		SemesterCreditCap: rules.SemesterCreditCap,
		MaxSemesters:      rules.MaxSemesters,
	}
}
