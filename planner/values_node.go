package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// ValuesNode is a leaf producing a fixed, in-memory list of rows — the
// source an InsertNode's child is built from when the rows being inserted
// are literal values rather than the result of another query.
type ValuesNode struct {
	Rows         [][]common.Value
	outputSchema []common.Type
}

func NewValuesNode(outputSchema []common.Type, rows [][]common.Value) *ValuesNode {
	return &ValuesNode{Rows: rows, outputSchema: outputSchema}
}

func (n *ValuesNode) OutputSchema() []common.Type {
	return n.outputSchema
}

func (n *ValuesNode) Children() []PlanNode {
	return nil
}

func (n *ValuesNode) String() string {
	return fmt.Sprintf("Values: %d rows", len(n.Rows))
}
