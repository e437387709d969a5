package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

func TestRender_TaskDetail(t *testing.T) {
	plan := newPlan("release", "start", 10,
		[]*domain.Node{
			{ID: "start", Type: domain.NodeStart},
			{ID: "build", Type: domain.NodeTask, Name: "Build artifacts", Action: "Run the build",
				Tool: "shell", ToolHint: "make release", Verify: contains("build ok"), MaxRetries: 2},
			{ID: "panic_room", Type: domain.NodeEscalate, Name: "Page the on-call"},
			{ID: "done", Type: domain.NodeExit},
		},
		[]domain.Edge{
			{From: "start", To: "build"},
			{From: "build", To: "done", Condition: domain.CondOnSuccess},
			{From: "build", To: "panic_room", Condition: domain.CondOnExhaust},
		})
	eng := NewEngine(&stubLibrary{plans: []*domain.Plan{plan}})
	state := activate(t, eng, plan)

	out := Render(state, plan)
	assert.Contains(t, out, "[WORKFLOW: release]")
	assert.Contains(t, out, "Build artifacts << CURRENT (attempt 1/3)")
	assert.Contains(t, out, "Action: Run the build")
	assert.Contains(t, out, "Tool: shell")
	assert.Contains(t, out, "Hint: make release")
	assert.Contains(t, out, "Verify: output_contains: build ok")
	assert.Contains(t, out, "On on_success → done")
	assert.Contains(t, out, "On on_exhaust → escalate: Page the on-call")
	assert.Contains(t, out, "Execute the current step. Do not skip ahead.")
}

func TestRender_TraceAnnotations(t *testing.T) {
	plan := newPlan("migrate", "start", 10,
		[]*domain.Node{
			{ID: "start", Type: domain.NodeStart},
			{ID: "dump", Type: domain.NodeTask, Action: "dump db", Verify: contains("dumped")},
			{ID: "load", Type: domain.NodeTask, Action: "load db", Verify: contains("loaded")},
			{ID: "done", Type: domain.NodeExit},
		},
		[]domain.Edge{
			{From: "start", To: "dump"},
			{From: "dump", To: "load", Condition: domain.CondOnSuccess},
			{From: "dump", To: "load", Condition: domain.CondOnExhaust},
			{From: "load", To: "done", Condition: domain.CondOnSuccess},
		})
	eng := NewEngine(&stubLibrary{plans: []*domain.Plan{plan}})
	state := activate(t, eng, plan)

	res := eng.Advance(context.Background(), state, output("dumped 42 tables"))
	require.Equal(t, "load", res.State.CurrentNode)

	out := Render(res.State, plan)
	assert.Contains(t, out, "dump [DONE] → load << CURRENT")
	assert.NotContains(t, out, "start")
}

func TestRender_DecisionDescription(t *testing.T) {
	plan := newPlan("triage", "start", 10,
		[]*domain.Node{
			{ID: "start", Type: domain.NodeStart},
			{ID: "pick", Type: domain.NodeDecision, Description: "Is the incident still open?"},
		},
		[]domain.Edge{
			{From: "start", To: "pick"},
		})
	// No outgoing edges on the decision: routing stops there, which is the
	// only way to observe its rendering.
	eng := NewEngine(&stubLibrary{plans: []*domain.Plan{plan}})
	state := activate(t, eng, plan)

	out := Render(state, plan)
	assert.Contains(t, out, "Decision: Is the incident still open?")
}
