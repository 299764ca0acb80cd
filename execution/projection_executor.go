package execution

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// ProjectionExecutor evaluates a list of expressions on the input tuples
// and produces a new tuple containing the results of those expressions.
type ProjectionExecutor struct {
	plan  *planner.ProjectionNode
	child Executor

	projectionExprs []common.Value
	err             error
}

// NewProjectionExecutor creates a new ProjectionExecutor.
func NewProjectionExecutor(plan *planner.ProjectionNode, child Executor) *ProjectionExecutor {
	return &ProjectionExecutor{
		child: child,
		plan:  plan,
	}
}

func (e *ProjectionExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *ProjectionExecutor) Init(ctx *ExecutorContext) error {
	e.projectionExprs = make([]common.Value, len(e.plan.Expressions))
	return e.child.Init(ctx)
}

func (e *ProjectionExecutor) Next() bool {
	if !e.child.Next() {
		e.err = e.child.Error()
		return false
	}

	childTuple := e.child.Current()
	for i, expr := range e.plan.Expressions {
		e.projectionExprs[i] = expr.Eval(childTuple)
	}
	return true
}

func (e *ProjectionExecutor) Current() storage.Tuple {
	return storage.FromValues(e.projectionExprs...)
}

func (e *ProjectionExecutor) Error() error {
	return e.err
}

func (e *ProjectionExecutor) Close() error {
	return e.child.Close()
}
