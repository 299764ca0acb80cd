package planner

import (
	"github.com/lkyu-ly/rucbase-go/common"
)

// ProjectionNode projects specific columns or expressions from its child.
type ProjectionNode struct {
	Child       PlanNode
	Expressions []Expr
}

func NewProjectionNode(child PlanNode, exprs []Expr) *ProjectionNode {
	return &ProjectionNode{
		Child:       child,
		Expressions: exprs,
	}
}

func (n *ProjectionNode) OutputSchema() []common.Type {
	out := make([]common.Type, len(n.Expressions))
	for i, e := range n.Expressions {
		out[i] = e.OutputType()
	}
	return out
}

func (n *ProjectionNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *ProjectionNode) String() string {
	return "Projection"
}
