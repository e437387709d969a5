package domain

// NodeType governs how the engine treats a graph node.
type NodeType string

const (
	// NodeStart is the traversal entry point; routed through immediately.
	NodeStart NodeType = "start"
	// NodeTask requires the agent to act; verified against tool output.
	NodeTask NodeType = "task"
	// NodeDecision routes on the last verification outcome.
	NodeDecision NodeType = "decision"
	// NodeCheckpoint is a pass-through marker, routed on its always edge.
	NodeCheckpoint NodeType = "checkpoint"
	// NodeExit completes the plan.
	NodeExit NodeType = "exit"
	// NodeEscalate terminates the plan with an escalation hand-off.
	NodeEscalate NodeType = "escalate"
)

// EdgeCondition selects which outgoing edge to follow. An empty condition is
// shorthand for always.
type EdgeCondition string

const (
	CondAlways    EdgeCondition = "always"
	CondOnSuccess EdgeCondition = "on_success"
	CondOnRetry   EdgeCondition = "on_retry"
	CondOnExhaust EdgeCondition = "on_exhaust"
	CondOnFail    EdgeCondition = "on_fail"
)

// CondFor maps a verification outcome to the decision-edge condition that
// should fire for it.
func CondFor(o Outcome) EdgeCondition {
	if o == OutcomeFail {
		return CondOnFail
	}
	return CondOnSuccess
}

// VerifyType selects the pass rule applied to raw tool output.
type VerifyType string

const (
	VerifyOutputContains    VerifyType = "output_contains"
	VerifyOutputNotContains VerifyType = "output_not_contains"
	VerifyExitCodeZero      VerifyType = "exit_code_zero"
	VerifyAnyOutput         VerifyType = "any_output"
	VerifyFileExists        VerifyType = "file_exists"
	VerifyManual            VerifyType = "manual"
)

// VerifySpec is the verification rule attached to a task node.
type VerifySpec struct {
	Type  VerifyType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// Node is one unit of a plan graph. Only the fields matching Type are set;
// the library loader rejects anything else at load time.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Name string   `json:"name,omitempty"`

	// Task fields.
	Action     string      `json:"action,omitempty"`
	Tool       string      `json:"tool,omitempty"`
	ToolHint   string      `json:"tool_hint,omitempty"`
	Verify     *VerifySpec `json:"verify,omitempty"`
	MaxRetries int         `json:"max_retries,omitempty"`

	// Decision fields.
	Description string `json:"description,omitempty"`

	// Escalate fields.
	PaceLevel string `json:"pace_level,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Label returns the display name of the node, falling back to its ID.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is a directed, conditioned transition between two nodes.
type Edge struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Condition EdgeCondition `json:"condition,omitempty"`
}

// Graph is the node/edge structure of a plan.
type Graph struct {
	Start string           `json:"start"`
	Nodes map[string]*Node `json:"nodes"`
	Edges []Edge           `json:"edges"`
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.Nodes[id]
}

// EdgesFrom returns the outgoing edges of a node in declaration order.
func (g *Graph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// TaskCount returns the number of task nodes. It defines the traversal's
// TotalNodes, fixed at activation.
func (g *Graph) TaskCount() int {
	n := 0
	for _, node := range g.Nodes {
		if node.Type == NodeTask {
			n++
		}
	}
	return n
}

// Plan is an immutable, declarative multi-step task template sourced from
// the plan library.
type Plan struct {
	ID               string   `json:"id"`
	Name             string   `json:"name,omitempty"`
	Domains          []string `json:"domains,omitempty"`
	Triggers         []string `json:"triggers,omitempty"`
	TriggerThreshold int      `json:"trigger_threshold"`
	StaleAfterTurns  int      `json:"stale_after_turns"`
	Graph            *Graph   `json:"graph"`
}

// Title returns the display name of the plan, falling back to its ID.
func (p *Plan) Title() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// MatchesDomain reports whether the plan accepts the given domain tag.
// Plans without declared domains accept every domain.
func (p *Plan) MatchesDomain(domain string) bool {
	if len(p.Domains) == 0 {
		return true
	}
	for _, d := range p.Domains {
		if d == domain {
			return true
		}
	}
	return false
}
