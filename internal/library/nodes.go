package library

import "github.com/aretw0/espalier/pkg/domain"

// nodeDoc is the per-type decoding target; each variant carries only the
// fields valid for its node type.
type nodeDoc interface {
	toDomain() *domain.Node
}

type bareNode struct {
	ID   string `mapstructure:"id"`
	Type string `mapstructure:"type"`
	Name string `mapstructure:"name"`
}

func (n *bareNode) toDomain() *domain.Node {
	return &domain.Node{ID: n.ID, Type: domain.NodeType(n.Type), Name: n.Name}
}

type verifyDoc struct {
	Type  string `mapstructure:"type"`
	Value string `mapstructure:"value"`
}

type taskNode struct {
	ID         string     `mapstructure:"id"`
	Type       string     `mapstructure:"type"`
	Name       string     `mapstructure:"name"`
	Action     string     `mapstructure:"action"`
	Tool       string     `mapstructure:"tool"`
	ToolHint   string     `mapstructure:"tool_hint"`
	Verify     *verifyDoc `mapstructure:"verify"`
	MaxRetries int        `mapstructure:"max_retries"`
}

func (n *taskNode) toDomain() *domain.Node {
	node := &domain.Node{
		ID:         n.ID,
		Type:       domain.NodeTask,
		Name:       n.Name,
		Action:     n.Action,
		Tool:       n.Tool,
		ToolHint:   n.ToolHint,
		MaxRetries: n.MaxRetries,
	}
	if n.Verify != nil {
		node.Verify = &domain.VerifySpec{
			Type:  domain.VerifyType(n.Verify.Type),
			Value: n.Verify.Value,
		}
	}
	return node
}

type decisionNode struct {
	ID          string `mapstructure:"id"`
	Type        string `mapstructure:"type"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

func (n *decisionNode) toDomain() *domain.Node {
	return &domain.Node{
		ID:          n.ID,
		Type:        domain.NodeDecision,
		Name:        n.Name,
		Description: n.Description,
	}
}

type escalateNode struct {
	ID        string `mapstructure:"id"`
	Type      string `mapstructure:"type"`
	Name      string `mapstructure:"name"`
	PaceLevel string `mapstructure:"pace_level"`
	Reason    string `mapstructure:"reason"`
}

func (n *escalateNode) toDomain() *domain.Node {
	return &domain.Node{
		ID:        n.ID,
		Type:      domain.NodeEscalate,
		Name:      n.Name,
		PaceLevel: n.PaceLevel,
		Reason:    n.Reason,
	}
}
