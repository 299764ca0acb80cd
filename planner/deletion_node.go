package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// DeletionNode represents a deletion from a table.
type DeletionNode struct {
	TableName string
	Child     PlanNode
}

func NewDeleteNode(tableName string, child PlanNode) *DeletionNode {
	return &DeletionNode{
		TableName: tableName,
		Child:     child,
	}
}

func (n *DeletionNode) OutputSchema() []common.Type {
	return []common.Type{common.IntType} // Returns count of deleted rows
}

func (n *DeletionNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *DeletionNode) String() string {
	return fmt.Sprintf("Delete: %s", n.TableName)
}
