package execution

import (
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// ValuesExecutor replays a ValuesNode's literal rows, one per Next() call.
type ValuesExecutor struct {
	plan *planner.ValuesNode
	idx  int
}

func NewValuesExecutor(plan *planner.ValuesNode) *ValuesExecutor {
	return &ValuesExecutor{plan: plan}
}

func (e *ValuesExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *ValuesExecutor) Init(ctx *ExecutorContext) error {
	e.idx = -1
	return nil
}

func (e *ValuesExecutor) Next() bool {
	e.idx++
	return e.idx < len(e.plan.Rows)
}

func (e *ValuesExecutor) Current() storage.Tuple {
	return storage.FromValues(e.plan.Rows[e.idx]...)
}

func (e *ValuesExecutor) Error() error {
	return nil
}

func (e *ValuesExecutor) Close() error {
	return nil
}
