package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *Plan {
	return &Plan{
		ID:              "p",
		Name:            "Plan P",
		StaleAfterTurns: 10,
		Graph: &Graph{
			Start: "start",
			Nodes: map[string]*Node{
				"start": {ID: "start", Type: NodeStart},
				"work":  {ID: "work", Type: NodeTask},
			},
			Edges: []Edge{{From: "start", To: "work"}},
		},
	}
}

func TestEmit_BoundedTrace(t *testing.T) {
	tr := NewTraversal(testPlan())
	for i := 0; i < MaxEvents*2; i++ {
		tr.Emit(Event{Type: EventNodeEntered, Node: fmt.Sprintf("n%d", i)})
	}

	require.Len(t, tr.Events, MaxEvents)
	// Oldest entries evicted first: the activation event and the early
	// node entries are gone.
	assert.Equal(t, "n50", tr.Events[0].Node)
	assert.Equal(t, "n99", tr.Events[MaxEvents-1].Node)
}

func TestEmit_StampsLogicalTurn(t *testing.T) {
	tr := NewTraversal(testPlan())
	tr.TurnsSinceTransition = 4
	tr.Emit(Event{Type: EventNodeVerified, Node: "work"})
	assert.Equal(t, 4, tr.Events[len(tr.Events)-1].Turn)
}

func TestLastOutcome(t *testing.T) {
	tr := NewTraversal(testPlan())

	t.Run("defaults to success with no verifications", func(t *testing.T) {
		assert.Equal(t, OutcomeSuccess, tr.LastOutcome())
	})

	t.Run("follows the most recent verification", func(t *testing.T) {
		tr.Emit(Event{Type: EventNodeVerified, Node: "work", Outcome: OutcomeFail})
		tr.Emit(Event{Type: EventEdgeFollowed, From: "work", To: "work"})
		assert.Equal(t, OutcomeFail, tr.LastOutcome())

		tr.Emit(Event{Type: EventNodeVerified, Node: "work", Outcome: OutcomeSuccess})
		assert.Equal(t, OutcomeSuccess, tr.LastOutcome())
	})
}

func TestVisitFor_ResetSemantics(t *testing.T) {
	tr := NewTraversal(testPlan())

	v := tr.VisitFor("work")
	assert.Equal(t, OutcomePending, v.Outcome)
	v.Attempts = 2

	// Same entry returns the same record until the node is re-entered.
	assert.Equal(t, 2, tr.VisitFor("work").Attempts)
}

func TestEscalationMessage(t *testing.T) {
	esc := &Escalation{
		PlanName:       "Plan P",
		Reason:         "tests keep failing",
		PaceLevel:      "urgent",
		CompletedNodes: 2,
		TotalNodes:     5,
	}
	msg := esc.Message()
	assert.Contains(t, msg, "[WORKFLOW ESCALATED: Plan P]")
	assert.Contains(t, msg, "Reason: tests keep failing")
	assert.Contains(t, msg, "Pace level: urgent")
	assert.Contains(t, msg, "Completed: 2/5 nodes")
}
