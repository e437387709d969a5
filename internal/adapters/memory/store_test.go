package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tr := &domain.Traversal{
		PlanID:      "deploy",
		CurrentNode: "run",
		Path:        []string{"start", "run"},
		Visited:     map[string]*domain.Visit{"run": {Outcome: domain.OutcomePending, Attempts: 1}},
	}

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s1", tr))
		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	})

	t.Run("stored state is isolated from the caller", func(t *testing.T) {
		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		got.CurrentNode = "mutated"

		again, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "run", again.CurrentNode)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Load(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("list is sorted", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s3", tr))
		require.NoError(t, store.Save(ctx, "s2", tr))
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2", "s3"}, ids)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "s1"))
		require.NoError(t, store.Delete(ctx, "s1"))
		_, err := store.Load(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
