package execution

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// DeletionExecutor drains its child and deletes the row each produced tuple's
// RID identifies. Index entries are removed before the heap slot is
// vacated, since the child's tuple (the only source of the indexed column
// values once the slot is cleared) is only readable up to that point.
type DeletionExecutor struct {
	plan    *planner.DeletionNode
	child   Executor
	heap    *storage.HeapFile
	desc    *storage.RawTupleDesc
	indexes []indexing.Index

	keyBuffer storage.RawTuple
	executed  bool
	cnt       int
	ctx       *ExecutorContext
	err       error
}

func NewDeleteExecutor(plan *planner.DeletionNode, child Executor, heap *storage.HeapFile, indexes []indexing.Index) *DeletionExecutor {
	return &DeletionExecutor{
		plan:    plan,
		child:   child,
		heap:    heap,
		desc:    heap.Schema(),
		indexes: indexes,
	}
}

func (e *DeletionExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *DeletionExecutor) Init(ctx *ExecutorContext) error {
	e.keyBuffer = make([]byte, e.desc.BytesPerTuple())
	e.ctx = ctx
	e.executed = false
	e.cnt = 0
	e.err = nil
	return e.child.Init(ctx)
}

func (e *DeletionExecutor) Next() bool {
	if !e.executed {
		for e.child.Next() {
			tuple := e.child.Current()
			rid := tuple.RID()
			common.Assert(!rid.IsNil(), "RID to delete should not be nil")

			for _, index := range e.indexes {
				if err := e.deleteFromIndex(index, tuple, rid); err != nil {
					e.err = err
					return false
				}
			}

			if err := e.heap.DeleteTuple(rid); err != nil {
				e.err = err
				return false
			}
			e.cnt++
		}
		if err := e.child.Error(); err != nil {
			e.err = err
			return false
		}
		e.executed = true
	}
	return !e.executed
}

func (e *DeletionExecutor) deleteFromIndex(index indexing.Index, t storage.Tuple, rid common.RecordID) error {
	for i, col := range index.Metadata().ProjectionList {
		index.Metadata().KeySchema.SetValue(e.keyBuffer, i, t.GetValue(col))
	}
	return index.DeleteEntry(index.Metadata().AsKey(e.keyBuffer), rid, e.ctx.GetTransaction())
}

func (e *DeletionExecutor) Current() storage.Tuple {
	return storage.FromValues(common.NewIntValue(int64(e.cnt)))
}

func (e *DeletionExecutor) Close() error {
	return e.child.Close()
}

func (e *DeletionExecutor) Error() error {
	return e.err
}
