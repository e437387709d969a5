package library

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/pkg/domain"
)

// Defaults applied to plans that omit the fields.
const (
	DefaultTriggerThreshold = 2
	DefaultStaleAfterTurns  = 15
)

// Library is an immutable, in-memory plan library loaded from a YAML
// document. It preserves document order for deterministic matching.
type Library struct {
	plans []*domain.Plan
	byID  map[string]*domain.Plan
}

// Plans returns all plans in document order.
func (l *Library) Plans() []*domain.Plan { return l.plans }

// Get retrieves a plan by ID.
func (l *Library) Get(id string) (*domain.Plan, bool) {
	p, ok := l.byID[id]
	return p, ok
}

// Len returns the number of plans.
func (l *Library) Len() int { return len(l.plans) }

// document mirrors the YAML layout. Nodes stay loosely typed here; Parse
// decodes them per node type with unknown fields rejected.
type document struct {
	Plans []planDoc `yaml:"plans"`
}

type planDoc struct {
	ID               string    `yaml:"id"`
	Name             string    `yaml:"name"`
	Domains          []string  `yaml:"domains"`
	Triggers         []string  `yaml:"triggers"`
	TriggerThreshold int       `yaml:"trigger_threshold"`
	StaleAfterTurns  int       `yaml:"stale_after_turns"`
	Graph            *graphDoc `yaml:"graph"`
}

type graphDoc struct {
	Start string           `yaml:"start"`
	Nodes []map[string]any `yaml:"nodes"`
	Edges []edgeDoc        `yaml:"edges"`
}

type edgeDoc struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Condition string `yaml:"condition"`
}

// Load reads and parses a plan library file. The library is read once and
// cached by the caller for the process lifetime.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan library: %w", err)
	}
	lib, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan library %s: %w", path, err)
	}
	return lib, nil
}

// Parse builds a validated Library from a YAML document. Malformed plan
// shapes are load-time errors, never silent runtime fallbacks.
func Parse(data []byte) (*Library, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	lib := &Library{byID: make(map[string]*domain.Plan, len(doc.Plans))}
	for i, pd := range doc.Plans {
		plan, err := buildPlan(pd)
		if err != nil {
			id := pd.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("plan %s: %w", id, err)
		}
		if _, dup := lib.byID[plan.ID]; dup {
			return nil, fmt.Errorf("plan %s: duplicate id", plan.ID)
		}
		lib.plans = append(lib.plans, plan)
		lib.byID[plan.ID] = plan
	}
	return lib, nil
}

func buildPlan(pd planDoc) (*domain.Plan, error) {
	if pd.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	if pd.Graph == nil {
		// Linear (steps-based) plans are a legacy shape this engine does
		// not execute.
		return nil, fmt.Errorf("graph is required")
	}

	plan := &domain.Plan{
		ID:               pd.ID,
		Name:             pd.Name,
		Domains:          pd.Domains,
		Triggers:         pd.Triggers,
		TriggerThreshold: pd.TriggerThreshold,
		StaleAfterTurns:  pd.StaleAfterTurns,
	}
	if plan.TriggerThreshold <= 0 {
		plan.TriggerThreshold = DefaultTriggerThreshold
	}
	if plan.StaleAfterTurns <= 0 {
		plan.StaleAfterTurns = DefaultStaleAfterTurns
	}

	graph := &domain.Graph{
		Start: pd.Graph.Start,
		Nodes: make(map[string]*domain.Node, len(pd.Graph.Nodes)),
	}
	for _, raw := range pd.Graph.Nodes {
		node, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := graph.Nodes[node.ID]; dup {
			return nil, fmt.Errorf("node %s: duplicate id", node.ID)
		}
		graph.Nodes[node.ID] = node
	}
	for _, ed := range pd.Graph.Edges {
		graph.Edges = append(graph.Edges, domain.Edge{
			From:      ed.From,
			To:        ed.To,
			Condition: domain.EdgeCondition(ed.Condition),
		})
	}
	plan.Graph = graph

	if err := validateGraph(graph); err != nil {
		return nil, err
	}
	return plan, nil
}

// decodeNode dispatches on the node's declared type and decodes the raw map
// into the matching shape, rejecting fields that do not belong to the type.
func decodeNode(raw map[string]any) (*domain.Node, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("node: missing id")
	}
	typ, _ := raw["type"].(string)

	var target any
	switch domain.NodeType(typ) {
	case domain.NodeTask:
		target = &taskNode{}
	case domain.NodeDecision:
		target = &decisionNode{}
	case domain.NodeEscalate:
		target = &escalateNode{}
	case domain.NodeStart, domain.NodeCheckpoint, domain.NodeExit:
		target = &bareNode{}
	default:
		return nil, fmt.Errorf("node %s: unknown type %q", id, typ)
	}

	if err := decodeStrict(raw, target); err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	return target.(nodeDoc).toDomain(), nil
}

func decodeStrict(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
