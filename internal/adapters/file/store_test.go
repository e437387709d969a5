package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	tr := &domain.Traversal{
		PlanID:      "deploy",
		CurrentNode: "run",
		Path:        []string{"start", "run"},
		Visited:     map[string]*domain.Visit{},
	}

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s1", tr))
		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, tr, got)

		// One readable JSON file per session.
		_, err = os.Stat(filepath.Join(store.BasePath, "s1.json"))
		assert.NoError(t, err)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Load(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("empty session id is rejected", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, "", tr))
		_, err := store.Load(ctx, "")
		assert.Error(t, err)
	})

	t.Run("list ignores non-session files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(store.BasePath, "README.md"), []byte("x"), 0o644))
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "s1"))
		require.NoError(t, store.Delete(ctx, "s1"))
		_, err := store.Load(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("listing an absent directory is empty, not an error", func(t *testing.T) {
		empty := NewStore(filepath.Join(t.TempDir(), "never-created"))
		ids, err := empty.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
