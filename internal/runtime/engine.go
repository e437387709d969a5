package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Status is the whole-traversal outcome of one turn.
type Status string

const (
	// StatusActive means the traversal continues; Result.Context carries the
	// status block for prompt injection.
	StatusActive Status = "active"
	// StatusCompleted means an exit node was reached.
	StatusCompleted Status = "completed"
	// StatusEscalated means an escalate node was reached.
	StatusEscalated Status = "escalated"
	// StatusExpired means the staleness window elapsed without a transition.
	StatusExpired Status = "expired"
	// StatusAbandoned means the plan or current node no longer resolves.
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the traversal ended this turn. The host must
// discard (delete) the stored state when true.
func (s Status) Terminal() bool { return s != StatusActive }

// TurnInput carries the per-turn signals into Advance. HasOutput
// distinguishes "tool produced empty output" from "no tool ran this turn".
type TurnInput struct {
	ToolOutput string
	HasOutput  bool
}

// Result is the outcome of one Activate or Advance call.
type Result struct {
	Status Status

	// State is the traversal after this turn. For terminal statuses it is
	// the final snapshot; the session entry must be removed.
	State *domain.Traversal

	// Context is the text to inject into the next reasoning step: the status
	// block while active, the escalation message on escalation, empty
	// otherwise.
	Context string

	// Escalation is set when Status is StatusEscalated.
	Escalation *domain.Escalation
}

// Engine is the graph traversal state machine. It holds no per-session
// state: each call is a function of (traversal, inputs) → (traversal′,
// result), with the traversal owned by the caller.
type Engine struct {
	library ports.PlanLibrary
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	sink    ports.EscalationSink
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithEscalationSink routes pace-level side effects to a consumer.
func WithEscalationSink(sink ports.EscalationSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// NewEngine creates an engine bound to a plan library.
func NewEngine(library ports.PlanLibrary, opts ...Option) *Engine {
	e := &Engine{
		library: library,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Activate starts a traversal for the given plan: position on the start
// node, follow its unconditional edge, then auto-route to the first
// actionable or terminal node.
func (e *Engine) Activate(ctx context.Context, plan *domain.Plan) (result *Result) {
	defer e.recoverPassthrough(&result, nil)

	if plan == nil || plan.Graph == nil || plan.Graph.Node(plan.Graph.Start) == nil {
		e.logger.Warn("plan has no resolvable start node; not activating",
			"plan", planID(plan))
		return &Result{Status: StatusAbandoned}
	}

	t := domain.NewTraversal(plan)
	t.Emit(domain.Event{Type: domain.EventNodeEntered, Node: t.CurrentNode})
	e.advanceFromStart(ctx, t, plan.Graph)

	if e.hooks.OnPlanActivated != nil {
		e.hooks.OnPlanActivated(ctx, t)
	}
	e.logger.Info("plan activated",
		"plan", plan.ID, "name", t.PlanName, "nodes", t.TotalNodes, "node", t.CurrentNode)

	return &Result{Status: StatusActive, State: t, Context: Render(t, plan)}
}

// advanceFromStart follows the start node's unconditional edge and routes
// through any non-actionable nodes. Safe to re-run if the traversal is
// somehow still parked on start.
func (e *Engine) advanceFromStart(ctx context.Context, t *domain.Traversal, g *domain.Graph) {
	if edge, ok := resolveEdge(g, t.CurrentNode, domain.CondAlways); ok {
		e.moveTo(ctx, t, edge)
		e.autoRoute(ctx, t, g)
	}
}

// Advance consumes one host turn for an active traversal. Counters advance
// whether or not tool output is present; verification and task transitions
// only happen when it is.
func (e *Engine) Advance(ctx context.Context, t *domain.Traversal, turn TurnInput) (result *Result) {
	defer e.recoverPassthrough(&result, t)

	// Counters move before any transition logic; staleness is checked first.
	t.TurnsSinceTransition++
	t.TurnsSinceProgress++

	if t.TurnsSinceTransition > t.StaleAfterTurns {
		return e.expire(ctx, t)
	}

	plan, ok := e.library.Get(t.PlanID)
	if !ok || plan.Graph == nil {
		e.logger.Warn("active plan no longer resolves; abandoning traversal", "plan", t.PlanID)
		return &Result{Status: StatusAbandoned, State: t}
	}
	g := plan.Graph

	node := g.Node(t.CurrentNode)
	if node == nil {
		e.logger.Warn("current node no longer resolves; abandoning traversal",
			"plan", t.PlanID, "node", t.CurrentNode)
		return &Result{Status: StatusAbandoned, State: t}
	}

	switch node.Type {
	case domain.NodeExit:
		return e.complete(ctx, t)
	case domain.NodeEscalate:
		return e.escalate(ctx, t, node)
	case domain.NodeStart:
		// Idempotent safety net: activation should have moved past start.
		e.advanceFromStart(ctx, t, g)
	case domain.NodeTask:
		if turn.HasOutput {
			e.handleTask(ctx, t, g, node, turn.ToolOutput)
		}
	case domain.NodeDecision, domain.NodeCheckpoint:
		e.autoRoute(ctx, t, g)
	}

	// A move may have landed on a terminal node; handle it this turn rather
	// than waiting for the next advance.
	if landed := g.Node(t.CurrentNode); landed != nil {
		switch landed.Type {
		case domain.NodeExit:
			return e.complete(ctx, t)
		case domain.NodeEscalate:
			return e.escalate(ctx, t, landed)
		}
	}

	return &Result{Status: StatusActive, State: t, Context: Render(t, plan)}
}

// handleTask runs verification for the current task node and routes on the
// result: on_success, on_retry while budget remains, on_exhaust past it.
func (e *Engine) handleTask(ctx context.Context, t *domain.Traversal, g *domain.Graph, node *domain.Node, output string) {
	visit := t.VisitFor(node.ID)
	visit.Attempts++

	verified := Verify(node.Verify, output)
	outcome := domain.OutcomeFail
	if verified {
		outcome = domain.OutcomeSuccess
	}
	t.Emit(domain.Event{Type: domain.EventNodeVerified, Node: node.ID, Outcome: outcome})

	if verified {
		visit.Outcome = domain.OutcomeSuccess
		if !t.Completed(node.ID) {
			t.CompletedNodes++
			t.StepsCompleted = append(t.StepsCompleted, node.ID)
			t.TurnsSinceProgress = 0
		}
		e.logger.Info("step verified",
			"plan", t.PlanID, "node", node.ID, "completed", t.CompletedNodes, "total", t.TotalNodes)

		if edge, ok := resolveEdge(g, node.ID, domain.CondOnSuccess); ok {
			e.moveTo(ctx, t, edge)
			e.autoRoute(ctx, t, g)
		} else {
			e.logger.Warn("no edge on success; traversal stalling", "plan", t.PlanID, "node", node.ID)
		}
		return
	}

	if visit.Attempts <= node.MaxRetries {
		t.Emit(domain.Event{Type: domain.EventRetryTriggered, Node: node.ID})
		if e.hooks.OnRetry != nil {
			e.hooks.OnRetry(ctx, t, node.ID, visit.Attempts)
		}
		e.logger.Info("step retry",
			"plan", t.PlanID, "node", node.ID, "attempt", visit.Attempts, "max_retries", node.MaxRetries)

		if edge, ok := resolveEdge(g, node.ID, domain.CondOnRetry); ok {
			e.moveTo(ctx, t, edge)
			e.autoRoute(ctx, t, g)
		}
		// No retry edge: stay on the node for another attempt.
		return
	}

	// Retry budget exhausted: a planned branch, not an error.
	visit.Outcome = domain.OutcomeFail
	if !t.Failed(node.ID) {
		t.StepsFailed = append(t.StepsFailed, node.ID)
	}
	e.logger.Info("step failed after retries",
		"plan", t.PlanID, "node", node.ID, "attempts", visit.Attempts)

	if edge, ok := resolveEdge(g, node.ID, domain.CondOnExhaust, domain.CondOnFail); ok {
		e.moveTo(ctx, t, edge)
		e.autoRoute(ctx, t, g)
	} else {
		e.logger.Warn("no edge on exhaust; traversal stalling", "plan", t.PlanID, "node", node.ID)
	}
}

func (e *Engine) complete(ctx context.Context, t *domain.Traversal) *Result {
	t.Emit(domain.Event{Type: domain.EventPlanCompleted, Node: t.CurrentNode})
	e.logger.Info("plan completed",
		"plan", t.PlanID, "name", t.PlanName, "completed", t.CompletedNodes, "total", t.TotalNodes)
	if e.hooks.OnPlanCompleted != nil {
		e.hooks.OnPlanCompleted(ctx, t)
	}
	return &Result{Status: StatusCompleted, State: t}
}

func (e *Engine) expire(ctx context.Context, t *domain.Traversal) *Result {
	t.Emit(domain.Event{Type: domain.EventPlanExpired, Node: t.CurrentNode})
	e.logger.Info("plan expired",
		"plan", t.PlanID, "name", t.PlanName, "stale_after_turns", t.StaleAfterTurns)
	if e.hooks.OnPlanExpired != nil {
		e.hooks.OnPlanExpired(ctx, t)
	}
	return &Result{Status: StatusExpired, State: t}
}

func (e *Engine) escalate(ctx context.Context, t *domain.Traversal, node *domain.Node) *Result {
	pace := node.PaceLevel
	if pace == "" {
		pace = "contingent"
	}
	reason := node.Reason
	if reason == "" {
		reason = "plan escalated"
	}
	esc := &domain.Escalation{
		PlanName:       t.PlanName,
		Reason:         reason,
		PaceLevel:      pace,
		CompletedNodes: t.CompletedNodes,
		TotalNodes:     t.TotalNodes,
	}

	t.Emit(domain.Event{Type: domain.EventPlanEscalated, Node: t.CurrentNode, Reason: reason, PaceLevel: pace})
	if e.sink != nil {
		e.sink.Escalate(ctx, esc)
	}
	e.logger.Warn("plan escalated",
		"plan", t.PlanID, "name", t.PlanName, "pace_level", pace, "reason", reason)
	if e.hooks.OnPlanEscalated != nil {
		e.hooks.OnPlanEscalated(ctx, t, esc)
	}

	return &Result{Status: StatusEscalated, State: t, Context: esc.Message(), Escalation: esc}
}

// recoverPassthrough degrades any internal panic to a passthrough turn: the
// traversal keeps whatever updates it received and the host loop is never
// interrupted.
func (e *Engine) recoverPassthrough(result **Result, t *domain.Traversal) {
	if r := recover(); r != nil {
		e.logger.Warn("engine error; passing through this turn", "err", r)
		status := StatusActive
		if t == nil {
			status = StatusAbandoned
		}
		*result = &Result{Status: status, State: t}
	}
}

func planID(p *domain.Plan) string {
	if p == nil {
		return ""
	}
	return p.ID
}
