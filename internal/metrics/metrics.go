// Package metrics exposes traversal lifecycle counters via Prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/espalier/pkg/domain"
)

// Metrics holds the traversal counters. Register it against a prometheus
// Registerer and attach Hooks() to the engine.
type Metrics struct {
	activated *prometheus.CounterVec
	completed *prometheus.CounterVec
	expired   *prometheus.CounterVec
	escalated *prometheus.CounterVec
	retries   *prometheus.CounterVec
	steps     *prometheus.CounterVec
}

// New creates the metric set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "plans_activated_total",
			Help:      "Plans activated, by plan ID.",
		}, []string{"plan"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "plans_completed_total",
			Help:      "Plans that reached an exit node, by plan ID.",
		}, []string{"plan"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "plans_expired_total",
			Help:      "Plans abandoned by the staleness window, by plan ID.",
		}, []string{"plan"}),
		escalated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "plans_escalated_total",
			Help:      "Plans that reached an escalate node, by plan ID and pace level.",
		}, []string{"plan", "pace_level"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "step_retries_total",
			Help:      "Task verification retries, by plan ID.",
		}, []string{"plan"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "nodes_entered_total",
			Help:      "Node entries during traversal, by plan ID.",
		}, []string{"plan"}),
	}
	if reg != nil {
		reg.MustRegister(m.activated, m.completed, m.expired, m.escalated, m.retries, m.steps)
	}
	return m
}

// Hooks adapts the metric set to engine lifecycle callbacks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPlanActivated: func(ctx context.Context, t *domain.Traversal) {
			m.activated.WithLabelValues(t.PlanID).Inc()
		},
		OnNodeEntered: func(ctx context.Context, t *domain.Traversal, nodeID string) {
			m.steps.WithLabelValues(t.PlanID).Inc()
		},
		OnRetry: func(ctx context.Context, t *domain.Traversal, nodeID string, attempt int) {
			m.retries.WithLabelValues(t.PlanID).Inc()
		},
		OnPlanCompleted: func(ctx context.Context, t *domain.Traversal) {
			m.completed.WithLabelValues(t.PlanID).Inc()
		},
		OnPlanExpired: func(ctx context.Context, t *domain.Traversal) {
			m.expired.WithLabelValues(t.PlanID).Inc()
		},
		OnPlanEscalated: func(ctx context.Context, t *domain.Traversal, esc *domain.Escalation) {
			m.escalated.WithLabelValues(t.PlanID, esc.PaceLevel).Inc()
		},
	}
}

// Merge combines two hook sets so metrics can stack with caller hooks.
func Merge(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPlanActivated: func(ctx context.Context, t *domain.Traversal) {
			if a.OnPlanActivated != nil {
				a.OnPlanActivated(ctx, t)
			}
			if b.OnPlanActivated != nil {
				b.OnPlanActivated(ctx, t)
			}
		},
		OnNodeEntered: func(ctx context.Context, t *domain.Traversal, nodeID string) {
			if a.OnNodeEntered != nil {
				a.OnNodeEntered(ctx, t, nodeID)
			}
			if b.OnNodeEntered != nil {
				b.OnNodeEntered(ctx, t, nodeID)
			}
		},
		OnRetry: func(ctx context.Context, t *domain.Traversal, nodeID string, attempt int) {
			if a.OnRetry != nil {
				a.OnRetry(ctx, t, nodeID, attempt)
			}
			if b.OnRetry != nil {
				b.OnRetry(ctx, t, nodeID, attempt)
			}
		},
		OnPlanCompleted: func(ctx context.Context, t *domain.Traversal) {
			if a.OnPlanCompleted != nil {
				a.OnPlanCompleted(ctx, t)
			}
			if b.OnPlanCompleted != nil {
				b.OnPlanCompleted(ctx, t)
			}
		},
		OnPlanExpired: func(ctx context.Context, t *domain.Traversal) {
			if a.OnPlanExpired != nil {
				a.OnPlanExpired(ctx, t)
			}
			if b.OnPlanExpired != nil {
				b.OnPlanExpired(ctx, t)
			}
		},
		OnPlanEscalated: func(ctx context.Context, t *domain.Traversal, esc *domain.Escalation) {
			if a.OnPlanEscalated != nil {
				a.OnPlanEscalated(ctx, t, esc)
			}
			if b.OnPlanEscalated != nil {
				b.OnPlanEscalated(ctx, t, esc)
			}
		},
	}
}
