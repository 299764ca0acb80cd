package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// NestedLoopJoinNode represents a tuple-at-a-time nested loop join: for each
// left tuple, every right tuple is probed against Predicate. The teacher's
// block-buffered variant, hash join, index join, and sort-merge join are all
// out of scope — this repository has exactly one join strategy.
type NestedLoopJoinNode struct {
	Left         PlanNode
	Right        PlanNode
	Predicate    Expr
	outputSchema []common.Type
}

func NewNestedLoopJoinNode(left, right PlanNode, predicate Expr) *NestedLoopJoinNode {
	return &NestedLoopJoinNode{
		Left:         left,
		Right:        right,
		Predicate:    predicate,
		outputSchema: append(left.OutputSchema(), right.OutputSchema()...),
	}
}

func (n *NestedLoopJoinNode) OutputSchema() []common.Type {
	return n.outputSchema
}

func (n *NestedLoopJoinNode) Children() []PlanNode {
	return []PlanNode{n.Left, n.Right}
}

func (n *NestedLoopJoinNode) String() string {
	return fmt.Sprintf("NestedLoopJoin: %s", n.Predicate.String())
}
