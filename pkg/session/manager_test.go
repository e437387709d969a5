package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewStore())

	tr := &domain.Traversal{PlanID: "deploy", CurrentNode: "run"}
	require.NoError(t, m.Save(ctx, "s1", tr))

	got, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "run", got.CurrentNode)

	require.NoError(t, m.Delete(ctx, "s1"))
	_, err = m.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SerializesPerSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewStore())

	// Many goroutines doing read-modify-write cycles on one session; the
	// per-session lock must make the increments lossless.
	require.NoError(t, m.Save(ctx, "s1", &domain.Traversal{PlanID: "p"}))

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "s1", func(ctx context.Context) error {
				tr, err := m.Store().Load(ctx, "s1")
				if err != nil {
					return err
				}
				tr.TurnsSinceProgress++
				return m.Store().Save(ctx, "s1", tr)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, workers, got.TurnsSinceProgress)
}

func TestManager_ReleasesLocks(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewStore())

	for i := 0; i < 10; i++ {
		_ = m.WithLock(ctx, "s1", func(ctx context.Context) error { return nil })
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "unused locks should be garbage collected")
}
