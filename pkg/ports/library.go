package ports

import "github.com/aretw0/espalier/pkg/domain"

// PlanLibrary is the read-only source of plan definitions. Implementations
// load once and cache for the process lifetime; a reload requires a restart.
type PlanLibrary interface {
	// Plans returns all plans in document order. The matcher relies on this
	// order for deterministic tie-breaking.
	Plans() []*domain.Plan

	// Get retrieves a plan by ID.
	Get(id string) (*domain.Plan, bool)
}
