package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// SeqScanNode scans every live row of a table, in RID order, filtering out
// rows that fail any of Predicates (a conjunction — all must hold).
//
// There is no lock manager in this repository, so unlike the teacher's
// version this carries no lock mode: a scan simply reads whatever the
// buffer pool hands it. IndexScanNode is dropped entirely along with it —
// the one index this repository ships is consulted directly by the planner
// that builds these trees, never through its own scan node.
type SeqScanNode struct {
	TableName    string
	Predicates   []Expr
	outputSchema []common.Type
}

func NewSeqScanNode(tableName string, outputSchema []common.Type, predicates []Expr) *SeqScanNode {
	return &SeqScanNode{
		TableName:    tableName,
		Predicates:   predicates,
		outputSchema: outputSchema,
	}
}

func (n *SeqScanNode) OutputSchema() []common.Type {
	return n.outputSchema
}

func (n *SeqScanNode) Children() []PlanNode {
	return nil
}

func (n *SeqScanNode) String() string {
	return fmt.Sprintf("SeqScan: %s", n.TableName)
}
