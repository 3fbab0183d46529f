package mapper_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/core/config"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/mapper"
)

var _ = Describe("EngineConfig", func() {
	rules := config.RulesConfig{
		TotalCredits:            120,
		UpperDivisionCredits:    40,
		MinDisciplines:          3,
		AreaMinCredits:          14,
		AreaMinUpperCredits:     7,
		CombinedMinCredits:      42,
		CombinedMinUpperCredits: 21,
		MaxAreasPerCourse:       1,
		MaxPLOsPerCourse:        3,
		UpperDivisionLevel:      3000,
		SemesterCreditCap:       15,
		MaxSemesters:            8,
	}

	It("produces a configuration the engine accepts", func() {
		cfg := mapper.EngineConfig(rules)

		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg).To(Equal(audit.Config{
			TotalCredits:            120,
			UpperDivisionCredits:    40,
			MinDisciplines:          3,
			AreaMinCredits:          14,
			AreaMinUpperCredits:     7,
			CombinedMinCredits:      42,
			CombinedMinUpperCredits: 21,
			MaxAreaMemberships:      1,
			MaxPLOMappings:          3,
			UpperDivisionLevel:      3000,
		}))
	})

	It("splits the sequencing knobs off into their own options", func() {
		opts := mapper.EngineSequenceOptions(rules)

		Expect(opts).To(Equal(audit.SequenceOptions{
			SemesterCreditCap: 15,
			MaxSemesters:      8,
		}))
	})
})
