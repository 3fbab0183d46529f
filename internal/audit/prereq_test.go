package audit_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/internal/audit"
)

func strPtr(s string) *string {
	return &s
}

var _ = Describe("ResolvePrerequisites", func() {
	var (
		edges []audit.Edge
		plan  []audit.Course
	)

	BeforeEach(func() {
		edges = []audit.Edge{
			{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
			{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
		}
		plan = nil
	})

	Describe("chain construction", func() {
		It("reports only the unmet tail when the chain root is completed", func() {
			plan = []audit.Course{
				{Code: "CS 1400", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeFalse())
			Expect(result.UnmetChains).To(Equal([][]string{{"CS 2420", "CS 3400"}}))
			Expect(result.CyclesDetected).To(BeEmpty())
		})

		It("reports the full chain when nothing is completed", func() {
			result, err := audit.ResolvePrerequisites("CS 3400", edges, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.UnmetChains).To(Equal([][]string{{"CS 1400", "CS 2420", "CS 3400"}}))
		})

		It("is satisfied when every prerequisite is covered", func() {
			plan = []audit.Course{
				{Code: "CS 1400", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
				{Code: "CS 2420", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("B")},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
			Expect(result.UnmetChains).To(BeEmpty())
		})

		It("accepts in-progress work as satisfying", func() {
			plan = []audit.Course{
				{Code: "CS 2420", Credits: 4, Status: audit.StatusInProgress},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("does not let a failing grade satisfy a requirement", func() {
			plan = []audit.Course{
				{Code: "CS 1400", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
				{Code: "CS 2420", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("F")},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeFalse())
			Expect(result.UnmetChains).To(Equal([][]string{{"CS 2420", "CS 3400"}}))
		})

		It("prunes below a satisfied course even when deeper requirements are unmet", func() {
			// CS 2420 passed, CS 1400 never taken: the pass vouches for it.
			plan = []audit.Course{
				{Code: "CS 2420", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("B")},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("reports one chain per unmet branch, sorted", func() {
			edges = append(edges,
				audit.Edge{Course: "CS 4000", Requires: "MATH 2040", Kind: audit.EdgePrerequisite},
				audit.Edge{Course: "CS 4000", Requires: "CS 3400", Kind: audit.EdgePrerequisite},
			)
			plan = []audit.Course{
				{Code: "CS 2420", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
			}

			result, err := audit.ResolvePrerequisites("CS 4000", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.UnmetChains).To(Equal([][]string{
				{"CS 3400", "CS 4000"},
				{"MATH 2040", "CS 4000"},
			}))
		})

		It("shares one walk across a diamond dependency", func() {
			edges = []audit.Edge{
				{Course: "CS 4700", Requires: "CS 3005", Kind: audit.EdgePrerequisite},
				{Course: "CS 4700", Requires: "CS 3530", Kind: audit.EdgePrerequisite},
				{Course: "CS 3005", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
				{Course: "CS 3530", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
			}

			result, err := audit.ResolvePrerequisites("CS 4700", edges, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.UnmetChains).To(Equal([][]string{
				{"CS 2420", "CS 3005", "CS 4700"},
				{"CS 2420", "CS 3530", "CS 4700"},
			}))
		})

		It("ignores recommended edges", func() {
			edges = []audit.Edge{
				{Course: "CS 3400", Requires: "CS 2100", Kind: audit.EdgeRecommended},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("normalizes codes before matching", func() {
			plan = []audit.Course{
				{Code: "cs  2420", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
				{Code: "cs 1400", Credits: 4, Status: audit.StatusCompleted, Grade: strPtr("A")},
			}

			result, err := audit.ResolvePrerequisites("cs 3400", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})
	})

	Describe("corequisites", func() {
		BeforeEach(func() {
			edges = []audit.Edge{
				{Course: "CS 2420", Requires: "CS 2425", Kind: audit.EdgeCorequisite},
			}
		})

		It("is satisfied by a same-term planned corequisite", func() {
			plan = []audit.Course{
				{Code: "CS 2420", Credits: 4, Status: audit.StatusPlanned, Term: "2026 Spring"},
				{Code: "CS 2425", Credits: 1, Status: audit.StatusPlanned, Term: "2026 Spring"},
			}

			result, err := audit.ResolvePrerequisites("CS 2420", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})

		It("is unmet when the corequisite is planned for a different term", func() {
			plan = []audit.Course{
				{Code: "CS 2420", Credits: 4, Status: audit.StatusPlanned, Term: "2026 Spring"},
				{Code: "CS 2425", Credits: 1, Status: audit.StatusPlanned, Term: "2026 Fall"},
			}

			result, err := audit.ResolvePrerequisites("CS 2420", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.UnmetChains).To(Equal([][]string{{"CS 2425", "CS 2420"}}))
		})

		It("is satisfied by an already completed corequisite", func() {
			plan = []audit.Course{
				{Code: "CS 2425", Credits: 1, Status: audit.StatusCompleted, Grade: strPtr("A")},
			}

			result, err := audit.ResolvePrerequisites("CS 2420", edges, plan)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(BeTrue())
		})
	})

	Describe("cycle handling", func() {
		It("detects a two-course cycle and still returns chains", func() {
			edges = []audit.Edge{
				{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
				{Course: "CS 2420", Requires: "CS 3400", Kind: audit.EdgePrerequisite},
			}

			result, err := audit.ResolvePrerequisites("CS 3400", edges, nil)

			var integrity *audit.DataIntegrityError
			Expect(errors.As(err, &integrity)).To(BeTrue())
			Expect(result.CyclesDetected).To(Equal([][]string{{"CS 2420", "CS 3400"}}))
			Expect(result.Satisfied).To(BeFalse())
		})

		It("detects a self-referential course", func() {
			edges = []audit.Edge{
				{Course: "CS 1400", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
			}

			result, err := audit.ResolvePrerequisites("CS 1400", edges, nil)

			Expect(err).To(HaveOccurred())
			Expect(result.CyclesDetected).To(Equal([][]string{{"CS 1400"}}))
		})

		It("terminates on a three-course cycle deep in the graph", func() {
			edges = []audit.Edge{
				{Course: "CS 4000", Requires: "CS 3400", Kind: audit.EdgePrerequisite},
				{Course: "CS 3400", Requires: "CS 2420", Kind: audit.EdgePrerequisite},
				{Course: "CS 2420", Requires: "CS 1400", Kind: audit.EdgePrerequisite},
				{Course: "CS 1400", Requires: "CS 3400", Kind: audit.EdgePrerequisite},
			}

			result, err := audit.ResolvePrerequisites("CS 4000", edges, nil)

			Expect(err).To(HaveOccurred())
			Expect(result.CyclesDetected).To(Equal([][]string{{"CS 1400", "CS 3400", "CS 2420"}}))
		})
	})

	Describe("malformed input", func() {
		It("rejects an empty target", func() {
			_, err := audit.ResolvePrerequisites("  ", edges, nil)

			var integrity *audit.DataIntegrityError
			Expect(errors.As(err, &integrity)).To(BeTrue())
		})

		It("rejects an edge with an empty endpoint", func() {
			edges = append(edges, audit.Edge{Course: "CS 1400", Requires: "", Kind: audit.EdgePrerequisite})

			_, err := audit.ResolvePrerequisites("CS 3400", edges, nil)

			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown edge kind", func() {
			edges = append(edges, audit.Edge{Course: "CS 1400", Requires: "CS 1000", Kind: "suggested"})

			_, err := audit.ResolvePrerequisites("CS 3400", edges, nil)

			var integrity *audit.DataIntegrityError
			Expect(errors.As(err, &integrity)).To(BeTrue())
		})
	})
})
