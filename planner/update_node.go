package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// Assignment is one "column = expression" clause of an update.
type Assignment struct {
	ColumnIndex int
	Value       Expr
}

// UpdateNode represents an update to a table: Child yields one tuple per row
// to update (its RID identifies the row), and Assignments says which
// columns to overwrite and what to overwrite them with.
type UpdateNode struct {
	TableName   string
	Assignments []Assignment
	Child       PlanNode
}

func NewUpdateNode(tableName string, child PlanNode, assignments []Assignment) *UpdateNode {
	return &UpdateNode{
		TableName:   tableName,
		Assignments: assignments,
		Child:       child,
	}
}

func (n *UpdateNode) OutputSchema() []common.Type {
	return []common.Type{common.IntType}
}

func (n *UpdateNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *UpdateNode) String() string {
	return fmt.Sprintf("Update: %s", n.TableName)
}
