package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Render projects the traversal into the status block injected into the next
// reasoning step. This text is the only channel carrying traversal state
// back to the agent.
func Render(t *domain.Traversal, plan *domain.Plan) string {
	g := plan.Graph
	current := g.Node(t.CurrentNode)

	lines := []string{fmt.Sprintf("[WORKFLOW: %s]", t.PlanName)}

	if trace := renderTrace(t, g); trace != "" {
		lines = append(lines, "  "+trace)
	}

	if current != nil {
		switch current.Type {
		case domain.NodeTask:
			lines = append(lines, renderTaskDetail(g, current)...)
		case domain.NodeDecision:
			desc := current.Description
			if desc == "" {
				desc = current.Label()
			}
			lines = append(lines, "    Decision: "+desc)
		}
	}

	lines = append(lines, "", "Execute the current step. Do not skip ahead.")
	return strings.Join(lines, "\n")
}

// renderTrace builds the deduplicated path summary, skipping start and
// checkpoint nodes.
func renderTrace(t *domain.Traversal, g *domain.Graph) string {
	var parts []string
	seen := make(map[string]bool)
	for _, id := range t.Path {
		if seen[id] {
			continue
		}
		node := g.Node(id)
		if node == nil || node.Type == domain.NodeStart || node.Type == domain.NodeCheckpoint {
			continue
		}
		seen[id] = true

		name := node.Label()
		if id == t.CurrentNode {
			parts = append(parts, name+currentMarker(t, node))
			continue
		}
		switch outcomeOf(t, id) {
		case domain.OutcomeSuccess:
			parts = append(parts, name+" [DONE]")
		case domain.OutcomeFail:
			parts = append(parts, name+" [FAILED]")
		default:
			parts = append(parts, name+" [...]")
		}
	}
	return strings.Join(parts, " → ")
}

func currentMarker(t *domain.Traversal, node *domain.Node) string {
	if node.MaxRetries > 0 {
		attempts := 0
		if v, ok := t.Visited[node.ID]; ok {
			attempts = v.Attempts
		}
		return fmt.Sprintf(" << CURRENT (attempt %d/%d)", attempts+1, node.MaxRetries+1)
	}
	return " << CURRENT"
}

func outcomeOf(t *domain.Traversal, nodeID string) domain.Outcome {
	if v, ok := t.Visited[nodeID]; ok {
		return v.Outcome
	}
	return domain.OutcomePending
}

// renderTaskDetail lists the action, tool hint, verification, and every
// outgoing edge of the current task node.
func renderTaskDetail(g *domain.Graph, node *domain.Node) []string {
	var lines []string
	lines = append(lines, "    Action: "+node.Action)
	if node.Tool != "" {
		lines = append(lines, "    Tool: "+node.Tool)
	}
	if node.ToolHint != "" {
		lines = append(lines, "    Hint: "+node.ToolHint)
	}
	if desc := VerifyDescription(node.Verify); desc != "" {
		lines = append(lines, "    Verify: "+desc)
	}
	for _, edge := range g.EdgesFrom(node.ID) {
		cond := edge.Condition
		if cond == "" {
			cond = domain.CondAlways
		}
		target := g.Node(edge.To)
		name := edge.To
		if target != nil {
			name = target.Label()
		}
		if target != nil && target.Type == domain.NodeEscalate {
			lines = append(lines, fmt.Sprintf("    On %s → escalate: %s", cond, name))
		} else {
			lines = append(lines, fmt.Sprintf("    On %s → %s", cond, name))
		}
	}
	return lines
}
