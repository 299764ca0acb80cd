package execution

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// NestedLoopJoinExecutor implements a tuple-at-a-time nested loop join: for
// every tuple from the left child, the right child is scanned from the
// start looking for matches against Predicate. The teacher's block-buffered
// variant batches several thousand left tuples per right rescan to cut down
// how many times the right side is read; that optimization is out of scope
// here, so this rescans the right child once per left tuple instead.
type NestedLoopJoinExecutor struct {
	plan                     *planner.NestedLoopJoinNode
	left, right              Executor
	joinedSchema             *storage.RawTupleDesc

	leftTuple     storage.Tuple
	haveLeftTuple bool
	joinedBuffer  storage.RawTuple
	current       storage.Tuple
	ctx           *ExecutorContext
	err           error
}

// NewNestedLoopJoinExecutor creates a new NestedLoopJoinExecutor.
func NewNestedLoopJoinExecutor(plan *planner.NestedLoopJoinNode, left Executor, right Executor) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{
		plan:         plan,
		left:         left,
		right:        right,
		joinedSchema: storage.NewRawTupleDesc(append(append([]common.Type{}, plan.Left.OutputSchema()...), plan.Right.OutputSchema()...)),
	}
}

func (e *NestedLoopJoinExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *NestedLoopJoinExecutor) Init(ctx *ExecutorContext) error {
	e.ctx = ctx
	e.err = nil
	e.haveLeftTuple = false
	e.joinedBuffer = make([]byte, e.joinedSchema.BytesPerTuple())
	return e.left.Init(ctx)
}

func (e *NestedLoopJoinExecutor) Next() bool {
	if e.err != nil {
		return false
	}

	for {
		if !e.haveLeftTuple {
			if !e.left.Next() {
				if err := e.left.Error(); err != nil {
					e.err = err
				}
				return false
			}
			e.leftTuple = e.left.Current()
			if err := e.right.Init(e.ctx); err != nil {
				e.err = err
				return false
			}
			e.haveLeftTuple = true
		}

		for e.right.Next() {
			joined := storage.MergeTuples(e.joinedBuffer, e.joinedSchema, e.leftTuple, e.right.Current())
			if planner.ExprIsTrue(e.plan.Predicate.Eval(joined)) {
				e.current = joined
				return true
			}
		}
		if err := e.right.Error(); err != nil {
			e.err = err
			return false
		}
		if err := e.right.Close(); err != nil {
			e.err = err
			return false
		}
		e.haveLeftTuple = false
	}
}

func (e *NestedLoopJoinExecutor) Current() storage.Tuple {
	return e.current
}

func (e *NestedLoopJoinExecutor) Error() error {
	return e.err
}

func (e *NestedLoopJoinExecutor) Close() error {
	if err := e.left.Close(); err != nil {
		return err
	}
	return e.right.Close()
}
