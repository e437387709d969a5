package matcher

import (
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Request carries the plan-selection inputs for one activation attempt.
type Request struct {
	// Domain is the classifier's tag for the current conversation.
	Domain string
	// Message is the free-text user message; matched lower-cased.
	Message string
	// Allowed restricts selection to the listed plan IDs. Nil allows every
	// plan; an empty, non-nil list allows none.
	Allowed []string
}

// Match scores the candidate plans and returns the best qualifying one.
// A plan qualifies when its trigger-hit count reaches its threshold and its
// declared domains (if any) include the request's domain. Score is the hit
// count plus 1.0 when a declared domain matched. Ties keep the earlier plan
// in library order. No qualifying plan is not an error.
func Match(plans []*domain.Plan, req Request) (*domain.Plan, bool) {
	message := strings.ToLower(req.Message)

	var allowed map[string]bool
	if req.Allowed != nil {
		allowed = make(map[string]bool, len(req.Allowed))
		for _, id := range req.Allowed {
			allowed[id] = true
		}
	}

	var best *domain.Plan
	bestScore := 0.0

	for _, plan := range plans {
		if allowed != nil && !allowed[plan.ID] {
			continue
		}
		if !plan.MatchesDomain(req.Domain) {
			continue
		}

		hits := 0
		for _, trigger := range plan.Triggers {
			if strings.Contains(message, strings.ToLower(trigger)) {
				hits++
			}
		}
		if hits < plan.TriggerThreshold {
			continue
		}

		score := float64(hits)
		if len(plan.Domains) > 0 {
			score += 1.0
		}
		if score > bestScore {
			bestScore = score
			best = plan
		}
	}

	return best, best != nil
}
