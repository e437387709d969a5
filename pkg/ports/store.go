package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// StateStore persists traversal state between turns. At most one traversal
// is stored per session ID.
type StateStore interface {
	// Save persists the traversal for a given session ID.
	Save(ctx context.Context, sessionID string, t *domain.Traversal) error

	// Load retrieves the traversal for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Traversal, error)

	// Delete removes the traversal for a given session ID. Deleting an
	// absent session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns all session IDs with stored traversals.
	List(ctx context.Context) ([]string, error)
}
