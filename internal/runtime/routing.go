package runtime

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// maxRouteDepth bounds auto-routing so a misauthored cyclic decision graph
// still terminates within a single turn.
const maxRouteDepth = 15

// resolveEdge finds the target edge from a node, trying each condition in
// priority order and finishing with a generic always edge. Edges with an
// empty condition count as always. The zero Edge and false mean the caller
// must handle a stall.
func resolveEdge(g *domain.Graph, from string, conditions ...domain.EdgeCondition) (domain.Edge, bool) {
	candidates := g.EdgesFrom(from)
	conditions = append(conditions, domain.CondAlways)
	for _, want := range conditions {
		for _, e := range candidates {
			cond := e.Condition
			if cond == "" {
				cond = domain.CondAlways
			}
			if cond == want {
				return e, true
			}
		}
	}
	return domain.Edge{}, false
}

// moveTo is the transition primitive. It repositions the traversal, resets
// the staleness counter, and resets the target's visit record so re-entered
// nodes start with a fresh retry budget.
func (e *Engine) moveTo(ctx context.Context, t *domain.Traversal, edge domain.Edge) {
	cond := edge.Condition
	if cond == "" {
		cond = domain.CondAlways
	}
	t.CurrentNode = edge.To
	t.Path = append(t.Path, edge.To)
	t.TurnsSinceTransition = 0
	t.Visited[edge.To] = &domain.Visit{Outcome: domain.OutcomePending}

	t.Emit(domain.Event{Type: domain.EventEdgeFollowed, From: edge.From, To: edge.To, Condition: cond})
	t.Emit(domain.Event{Type: domain.EventNodeEntered, Node: edge.To})
	if e.hooks.OnNodeEntered != nil {
		e.hooks.OnNodeEntered(ctx, t, edge.To)
	}
}

// autoRoute follows edges through node types that require no external action
// (start, decision, checkpoint) until the traversal lands on a task, exit,
// or escalate node, or the depth ceiling is hit.
func (e *Engine) autoRoute(ctx context.Context, t *domain.Traversal, g *domain.Graph) {
	for depth := 0; depth < maxRouteDepth; depth++ {
		node := g.Node(t.CurrentNode)
		if node == nil {
			return
		}
		var (
			edge domain.Edge
			ok   bool
		)
		switch node.Type {
		case domain.NodeStart, domain.NodeCheckpoint:
			edge, ok = resolveEdge(g, node.ID, domain.CondAlways)
		case domain.NodeDecision:
			edge, ok = resolveEdge(g, node.ID, domain.CondFor(t.LastOutcome()))
		default:
			// task, exit, escalate: needs action or is terminal.
			return
		}
		if !ok {
			return
		}
		e.moveTo(ctx, t, edge)
	}
	e.logger.Warn("auto-route depth ceiling reached", "plan", t.PlanID, "node", t.CurrentNode)
}
