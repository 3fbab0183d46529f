package dto

import (
	"sync"

	"github.com/invopop/jsonschema"
)

// Operation describes one advertised capability for discovery clients. The
// request schema is reflected from the same struct the handler binds, so the
// advertised contract cannot drift from the enforced one.
type Operation struct {
	Name          string             `json:"name"`
	Method        string             `json:"method"`
	Path          string             `json:"path"`
	Description   string             `json:"description"`
	RequestSchema *jsonschema.Schema `json:"request_schema,omitempty"`
}

type OperationCatalog struct {
	Operations []Operation `json:"operations"`
}

var loadOperations = sync.OnceValue(func() OperationCatalog {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return OperationCatalog{Operations: []Operation{
		{
			Name:          "calculate_credits",
			Method:        "POST",
			Path:          "/api/v1/audit/credits",
			Description:   "Aggregate earned, in-progress and projected credits with retakes deduplicated.",
			RequestSchema: reflector.Reflect(&CreditCheckRequest{}),
		},
		{
			Name:          "check_prerequisites",
			Method:        "POST",
			Path:          "/api/v1/audit/prerequisites",
			Description:   "Walk a course's requirement graph and report unmet chains and cycles.",
			RequestSchema: reflector.Reflect(&PrerequisiteCheckRequest{}),
		},
		{
			Name:          "validate_concentration_areas",
			Method:        "POST",
			Path:          "/api/v1/audit/concentrations",
			Description:   "Check concentration areas against credit, upper-division and discipline minimums.",
			RequestSchema: reflector.Reflect(&ConcentrationCheckRequest{}),
		},
		{
			Name:          "track_general_education",
			Method:        "POST",
			Path:          "/api/v1/audit/general-education",
			Description:   "Apply courses to general education categories and report remaining credits.",
			RequestSchema: reflector.Reflect(&GeneralEducationRequest{}),
		},
		{
			Name:          "conduct_market_research",
			Method:        "POST",
			Path:          "/api/v1/market-research",
			Description:   "Score externally gathered salary and growth signals for an emphasis.",
			RequestSchema: reflector.Reflect(&MarketResearchRequest{}),
		},
		{
			Name:          "validate_complete_iap",
			Method:        "POST",
			Path:          "/api/v1/plans/:id/validate",
			Description:   "Run the full rule set over a stored plan and persist the resulting report.",
			RequestSchema: reflector.Reflect(&ValidatePlanRequest{}),
		},
	}}
})

// Operations returns the operation catalog. Schemas reflect once and are
// reused; the catalog is immutable after startup.
func Operations() OperationCatalog {
	return loadOperations()
}
