package library

import (
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

var knownConditions = map[domain.EdgeCondition]bool{
	"":                   true, // shorthand for always
	domain.CondAlways:    true,
	domain.CondOnSuccess: true,
	domain.CondOnRetry:   true,
	domain.CondOnExhaust: true,
	domain.CondOnFail:    true,
}

var knownVerifyTypes = map[domain.VerifyType]bool{
	domain.VerifyOutputContains:    true,
	domain.VerifyOutputNotContains: true,
	domain.VerifyExitCodeZero:      true,
	domain.VerifyAnyOutput:         true,
	domain.VerifyFileExists:        true,
	domain.VerifyManual:            true,
}

// validateGraph checks structural consistency once at load time: a defined
// start node, edges between defined nodes, known conditions, and sane
// per-type fields.
func validateGraph(g *domain.Graph) error {
	var errs []error

	if g.Start == "" {
		errs = append(errs, fmt.Errorf("graph: missing start"))
	} else if g.Node(g.Start) == nil {
		errs = append(errs, fmt.Errorf("graph: start %q is not a defined node", g.Start))
	}

	for id, node := range g.Nodes {
		if node.Type == domain.NodeTask {
			if node.MaxRetries < 0 {
				errs = append(errs, fmt.Errorf("node %s: negative max_retries", id))
			}
			if node.Verify != nil && !knownVerifyTypes[node.Verify.Type] {
				errs = append(errs, fmt.Errorf("node %s: unknown verify type %q", id, node.Verify.Type))
			}
		}
	}

	for i, edge := range g.Edges {
		if edge.From == "" || edge.To == "" {
			errs = append(errs, fmt.Errorf("edge #%d: from and to are required", i))
			continue
		}
		if g.Node(edge.From) == nil {
			errs = append(errs, fmt.Errorf("edge %s→%s: from references undefined node", edge.From, edge.To))
		}
		if g.Node(edge.To) == nil {
			errs = append(errs, fmt.Errorf("edge %s→%s: to references undefined node", edge.From, edge.To))
		}
		if !knownConditions[edge.Condition] {
			errs = append(errs, fmt.Errorf("edge %s→%s: unknown condition %q", edge.From, edge.To, edge.Condition))
		}
	}

	return errors.Join(errs...)
}
