package domain

// Outcome is the per-visit verification result of a node.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
)

// Visit tracks verification attempts for the current entry into a node.
// It is reset whenever the traversal re-enters the node, so cyclic graphs
// (test → fix → test) get a fresh retry budget on each pass.
type Visit struct {
	Outcome  Outcome `json:"outcome"`
	Attempts int     `json:"attempts"`
}

// Traversal is the mutable per-session state of one active plan.
// The engine takes it by reference each turn and returns it updated;
// it lives in a StateStore between turns.
type Traversal struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`

	// CurrentNode always identifies a node in the active plan's graph.
	CurrentNode string `json:"current_node"`

	// Path is the ordered sequence of visited node IDs. It may repeat
	// under loops.
	Path []string `json:"path"`

	// Visited maps node ID to the attempt record of its latest entry.
	Visited map[string]*Visit `json:"visited"`

	// TurnsSinceTransition resets on every move; it drives staleness expiry.
	TurnsSinceTransition int `json:"turns_since_transition"`

	// TurnsSinceProgress resets only on a first-time task success. The gap
	// between the two counters is what lets a supervisor tell cycling from
	// real progress.
	TurnsSinceProgress int `json:"turns_since_progress"`

	// CompletedNodes counts unique task completions; TotalNodes is the task
	// node count, fixed at activation and never recomputed.
	CompletedNodes int `json:"completed_nodes"`
	TotalNodes     int `json:"total_nodes"`

	StepsCompleted []string `json:"steps_completed"`
	StepsFailed    []string `json:"steps_failed"`

	StaleAfterTurns int `json:"stale_after_turns"`

	// Events is the bounded traversal trace, oldest evicted first.
	Events []Event `json:"events"`
}

// NewTraversal creates the activation-time state for a plan, positioned on
// the graph's start node.
func NewTraversal(plan *Plan) *Traversal {
	t := &Traversal{
		PlanID:          plan.ID,
		PlanName:        plan.Title(),
		CurrentNode:     plan.Graph.Start,
		Path:            []string{plan.Graph.Start},
		Visited:         make(map[string]*Visit),
		TotalNodes:      plan.Graph.TaskCount(),
		StaleAfterTurns: plan.StaleAfterTurns,
	}
	t.Emit(Event{Type: EventPlanActivated, Node: plan.Graph.Start, Plan: plan.ID})
	return t
}

// VisitFor returns the visit record for a node, creating a pending one on
// first access.
func (t *Traversal) VisitFor(nodeID string) *Visit {
	v, ok := t.Visited[nodeID]
	if !ok {
		v = &Visit{Outcome: OutcomePending}
		t.Visited[nodeID] = v
	}
	return v
}

// Completed reports whether the node has already been counted as a unique
// completion.
func (t *Traversal) Completed(nodeID string) bool {
	for _, id := range t.StepsCompleted {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Failed reports whether the node is already recorded in StepsFailed.
func (t *Traversal) Failed(nodeID string) bool {
	for _, id := range t.StepsFailed {
		if id == nodeID {
			return true
		}
	}
	return false
}
