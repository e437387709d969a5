package espalier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier/internal/adapters/memory"
	"github.com/aretw0/espalier/internal/library"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/matcher"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/session"
)

// Engine is the high-level entry point. It binds a plan library, the
// traversal runtime and a session store behind a single per-turn call.
type Engine struct {
	library  ports.PlanLibrary
	runtime  *runtime.Engine
	sessions *session.Manager

	store   ports.StateStore
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	sink    ports.EscalationSink
	allowed []string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLibrary injects a pre-built plan library, bypassing file loading.
func WithLibrary(lib ports.PlanLibrary) Option {
	return func(e *Engine) { e.library = lib }
}

// WithStore sets the session state store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers lifecycle observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithEscalationSink routes escalation pace levels to a consumer.
func WithEscalationSink(sink ports.EscalationSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithAllowedPlans restricts activation to the listed plan IDs. Nil allows
// every plan; an empty, non-nil list allows none.
func WithAllowedPlans(ids []string) Option {
	return func(e *Engine) { e.allowed = ids }
}

// New initializes an Engine from a plan library file. libraryPath may be
// empty when WithLibrary is provided.
func New(libraryPath string, opts ...Option) (*Engine, error) {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.library == nil {
		if libraryPath == "" {
			return nil, fmt.Errorf("libraryPath is required when no library is provided")
		}
		lib, err := library.Load(libraryPath)
		if err != nil {
			return nil, fmt.Errorf("load plan library: %w", err)
		}
		e.library = lib
	}

	if e.store == nil {
		e.store = memory.NewStore()
	}
	e.sessions = session.NewManager(e.store, session.WithLogger(e.logger))

	e.runtime = runtime.NewEngine(e.library,
		runtime.WithLogger(e.logger),
		runtime.WithHooks(e.hooks),
		runtime.WithEscalationSink(e.sink),
	)

	return e, nil
}

// Turn carries the host-side signals for one conversation turn.
type Turn struct {
	// Domain is the host classifier's tag for the conversation, if any.
	Domain string
	// History is the conversation so far, oldest turn first.
	History ports.TurnHistory
}

// Result is the outcome of one Step call.
type Result struct {
	// Engaged reports whether a plan drove (or ended) this turn. When false
	// the host proceeds exactly as it would without the engine.
	Engaged bool
	// Status is the traversal status after this turn.
	Status runtime.Status
	// Context is text to inject into the next reasoning step, empty when
	// there is nothing to say.
	Context string
	// State is the traversal snapshot after this turn; nil when not engaged.
	State *domain.Traversal
	// Escalation is set when Status is StatusEscalated.
	Escalation *domain.Escalation
}

// Step consumes one host turn for a session. With no active traversal it
// tries to match and activate a plan from the latest user message; with one
// it advances the traversal on the latest tool output. Terminal traversals
// are removed from the store before returning.
func (e *Engine) Step(ctx context.Context, sessionID string, turn Turn) (*Result, error) {
	out := &Result{}
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		t, err := e.store.Load(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return e.tryActivate(ctx, sessionID, turn, out)
		}
		if err != nil {
			return fmt.Errorf("load session %s: %w", sessionID, err)
		}
		return e.advance(ctx, sessionID, t, turn, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) tryActivate(ctx context.Context, sessionID string, turn Turn, out *Result) error {
	message, ok := ports.LastUserMessage(turn.History)
	if !ok || message == "" {
		return nil
	}

	plan, ok := matcher.Match(e.library.Plans(), matcher.Request{
		Domain:  turn.Domain,
		Message: message,
		Allowed: e.allowed,
	})
	if !ok {
		return nil
	}

	res := e.runtime.Activate(ctx, plan)
	if res.Status != runtime.StatusActive || res.State == nil {
		return nil
	}
	if err := e.store.Save(ctx, sessionID, res.State); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}

	out.Engaged = true
	out.Status = res.Status
	out.Context = res.Context
	out.State = res.State
	return nil
}

func (e *Engine) advance(ctx context.Context, sessionID string, t *domain.Traversal, turn Turn, out *Result) error {
	output, has := ports.LastToolOutput(turn.History)
	res := e.runtime.Advance(ctx, t, runtime.TurnInput{ToolOutput: output, HasOutput: has})

	if res.Status.Terminal() {
		if err := e.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("delete session %s: %w", sessionID, err)
		}
	} else if err := e.store.Save(ctx, sessionID, res.State); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}

	out.Engaged = true
	out.Status = res.Status
	out.Context = res.Context
	out.State = res.State
	out.Escalation = res.Escalation
	return nil
}

// Activate starts the given plan for a session regardless of triggers,
// replacing any traversal already in progress.
func (e *Engine) Activate(ctx context.Context, sessionID, planID string) (*Result, error) {
	plan, ok := e.library.Get(planID)
	if !ok {
		return nil, fmt.Errorf("activate %s: %w", planID, domain.ErrPlanNotFound)
	}

	out := &Result{}
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		res := e.runtime.Activate(ctx, plan)
		if res.Status != runtime.StatusActive || res.State == nil {
			return fmt.Errorf("plan %s did not activate", planID)
		}
		if err := e.store.Save(ctx, sessionID, res.State); err != nil {
			return fmt.Errorf("save session %s: %w", sessionID, err)
		}
		out.Engaged = true
		out.Status = res.Status
		out.Context = res.Context
		out.State = res.State
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Abandon drops the session's traversal, if any.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Peek returns the session's traversal without advancing it.
func (e *Engine) Peek(ctx context.Context, sessionID string) (*domain.Traversal, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Library exposes the plan library for inspection surfaces.
func (e *Engine) Library() ports.PlanLibrary { return e.library }

// Sessions exposes the session manager for inspection surfaces.
func (e *Engine) Sessions() *session.Manager { return e.sessions }
