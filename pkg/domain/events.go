package domain

import (
	"context"
	"fmt"
)

// EventType defines the category of a traversal event.
type EventType string

const (
	EventPlanActivated  EventType = "plan_activated"
	EventNodeEntered    EventType = "node_entered"
	EventNodeVerified   EventType = "node_verified"
	EventRetryTriggered EventType = "retry_triggered"
	EventEdgeFollowed   EventType = "edge_followed"
	EventPlanExpired    EventType = "plan_expired"
	EventPlanCompleted  EventType = "plan_completed"
	EventPlanEscalated  EventType = "plan_escalated"
)

// MaxEvents caps the traversal event log; the oldest entry is evicted first.
const MaxEvents = 50

// Event is one entry in the traversal trace. Turn is the logical
// turns-since-transition value at emit time.
type Event struct {
	Type EventType `json:"type"`
	Turn int       `json:"turn"`

	Node      string        `json:"node,omitempty"`
	Plan      string        `json:"plan,omitempty"`
	Outcome   Outcome       `json:"outcome,omitempty"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Condition EdgeCondition `json:"condition,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	PaceLevel string        `json:"pace_level,omitempty"`
}

// Emit appends an event to the bounded trace, stamping the logical turn.
func (t *Traversal) Emit(ev Event) {
	ev.Turn = t.TurnsSinceTransition
	t.Events = append(t.Events, ev)
	if len(t.Events) > MaxEvents {
		t.Events = t.Events[len(t.Events)-MaxEvents:]
	}
}

// LastOutcome returns the outcome of the most recent node_verified event.
// Decision auto-routing keys its edge condition off this; success is the
// default when nothing has been verified yet.
func (t *Traversal) LastOutcome() Outcome {
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].Type == EventNodeVerified {
			return t.Events[i].Outcome
		}
	}
	return OutcomeSuccess
}

// Escalation is the terminal hand-off produced when an escalate node is
// reached. PaceLevel is consumed by an external severity/guidance tier.
type Escalation struct {
	PlanName       string `json:"plan_name"`
	Reason         string `json:"reason"`
	PaceLevel      string `json:"pace_level"`
	CompletedNodes int    `json:"completed_nodes"`
	TotalNodes     int    `json:"total_nodes"`
}

// Message renders the escalation text injected into the next reasoning step.
func (e *Escalation) Message() string {
	return fmt.Sprintf(
		"[WORKFLOW ESCALATED: %s]\n  Reason: %s\n  Pace level: %s\n  Completed: %d/%d nodes\n\n"+
			"The current approach has failed. Change strategy or ask the user for guidance.",
		e.PlanName, e.Reason, e.PaceLevel, e.CompletedNodes, e.TotalNodes)
}

// LifecycleHooks defines optional callbacks for engine observability.
// Nil members are skipped.
type LifecycleHooks struct {
	OnPlanActivated func(ctx context.Context, t *Traversal)
	OnNodeEntered   func(ctx context.Context, t *Traversal, nodeID string)
	OnRetry         func(ctx context.Context, t *Traversal, nodeID string, attempt int)
	OnPlanCompleted func(ctx context.Context, t *Traversal)
	OnPlanExpired   func(ctx context.Context, t *Traversal)
	OnPlanEscalated func(ctx context.Context, t *Traversal, esc *Escalation)
}
