package queue

type TaskType string

const (
	// TaskTypePlanAudit runs the validation engine over a submitted plan and
	// stores the resulting report.
	TaskTypePlanAudit TaskType = "plan_audit"

	// TaskTypeCatalogSync rebuilds the requirement graph and search index
	// from the catalog tables.
	TaskTypeCatalogSync TaskType = "catalog_sync"
)
