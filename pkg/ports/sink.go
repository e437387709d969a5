package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// EscalationSink receives the pace-level side effect when an escalate node
// is reached. Downstream severity/guidance systems consume it; the engine
// only reports.
type EscalationSink interface {
	Escalate(ctx context.Context, esc *domain.Escalation)
}

// EscalationFunc adapts a function to the EscalationSink interface.
type EscalationFunc func(ctx context.Context, esc *domain.Escalation)

// Escalate implements EscalationSink.
func (f EscalationFunc) Escalate(ctx context.Context, esc *domain.Escalation) { f(ctx, esc) }
