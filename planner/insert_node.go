package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// InsertNode represents an insertion into a table.
type InsertNode struct {
	TableName string
	Child     PlanNode
}

func NewInsertNode(tableName string, child PlanNode) *InsertNode {
	return &InsertNode{
		TableName: tableName,
		Child:     child,
	}
}

func (n *InsertNode) OutputSchema() []common.Type {
	return []common.Type{common.IntType} // Returns count of inserted rows
}

func (n *InsertNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *InsertNode) String() string {
	return fmt.Sprintf("Insert: %s", n.TableName)
}
