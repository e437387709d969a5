package espalier_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/library"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

const testLibrary = `
plans:
  - id: deploy
    name: Deploy a service
    triggers: [deploy, release]
    trigger_threshold: 2
    stale_after_turns: 5
    graph:
      start: begin
      nodes:
        - id: begin
          type: start
        - id: run_deploy
          type: task
          action: Run the deploy script
          max_retries: 1
          verify:
            type: output_contains
            value: deploy complete
        - id: finished
          type: exit
      edges:
        - {from: begin, to: run_deploy}
        - {from: run_deploy, to: finished, condition: on_success}
`

func newTestEngine(t *testing.T, opts ...espalier.Option) *espalier.Engine {
	t.Helper()
	lib, err := library.Parse([]byte(testLibrary))
	require.NoError(t, err)
	eng, err := espalier.New("", append([]espalier.Option{espalier.WithLibrary(lib)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestStep_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	history := ports.Transcript{
		{Role: "user", Content: "please deploy the new release"},
	}

	// Turn 1: the user message matches, a plan activates.
	res, err := eng.Step(ctx, "s1", espalier.Turn{History: history})
	require.NoError(t, err)
	require.True(t, res.Engaged)
	assert.Equal(t, runtime.StatusActive, res.Status)
	assert.Contains(t, res.Context, "[WORKFLOW: Deploy a service]")
	assert.Equal(t, "run_deploy", res.State.CurrentNode)

	// Turn 2: the tool ran and its output verifies; the plan completes and
	// the session is removed from the store.
	history = append(history,
		ports.TurnRecord{Role: "assistant", Content: "running the deploy"},
		ports.TurnRecord{Role: "tool", ToolName: "shell", ToolResult: "deploy complete in 34s"},
	)
	res, err = eng.Step(ctx, "s1", espalier.Turn{History: history})
	require.NoError(t, err)
	assert.True(t, res.Engaged)
	assert.Equal(t, runtime.StatusCompleted, res.Status)
	assert.Equal(t, 1, res.State.CompletedNodes)

	_, err = eng.Peek(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStep_NoMatchIsANoOp(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	res, err := eng.Step(ctx, "s1", espalier.Turn{History: ports.Transcript{
		{Role: "user", Content: "what is the weather like"},
	}})
	require.NoError(t, err)
	assert.False(t, res.Engaged)
	assert.Empty(t, res.Context)

	_, err = eng.Peek(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStep_EmptyHistoryIsANoOp(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	res, err := eng.Step(ctx, "s1", espalier.Turn{})
	require.NoError(t, err)
	assert.False(t, res.Engaged)
}

func TestStep_AllowListBlocksActivation(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, espalier.WithAllowedPlans([]string{}))

	res, err := eng.Step(ctx, "s1", espalier.Turn{History: ports.Transcript{
		{Role: "user", Content: "please deploy the new release"},
	}})
	require.NoError(t, err)
	assert.False(t, res.Engaged)
}

func TestActivateAndAbandon(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	res, err := eng.Activate(ctx, "s1", "deploy")
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusActive, res.Status)

	tr, err := eng.Peek(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "run_deploy", tr.CurrentNode)

	require.NoError(t, eng.Abandon(ctx, "s1"))
	_, err = eng.Peek(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = eng.Activate(ctx, "s1", "ghost")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestStep_RetryKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Activate(ctx, "s1", "deploy")
	require.NoError(t, err)

	history := ports.Transcript{
		{Role: "user", Content: "please deploy the new release"},
		{Role: "tool", ToolName: "shell", ToolResult: "connection refused"},
	}
	res, err := eng.Step(ctx, "s1", espalier.Turn{History: history})
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusActive, res.Status)
	assert.Contains(t, res.Context, "attempt 2/2")

	tr, err := eng.Peek(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Visited["run_deploy"].Attempts)
}
