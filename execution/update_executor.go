package execution

import (
	"errors"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// UpdateExecutor drains its child (one tuple per row to update, carrying
// that row's RID) and, for each, reads the current row, evaluates every
// assignment's expression against it, writes the new row back, and repairs
// any index whose key columns the assignments touch.
type UpdateExecutor struct {
	plan  *planner.UpdateNode
	heap  *storage.HeapFile
	desc  *storage.RawTupleDesc
	child Executor

	indexes []indexing.Index // subset of the table's indexes whose key the update can change

	executed                             bool
	cnt                                  int
	oldTuple                             storage.RawTuple
	newTuple, keyBufferOld, keyBufferNew []byte

	ctx *ExecutorContext
	err error
}

func indexKeyChanged(index indexing.Index, assignments []planner.Assignment) bool {
	for _, keyCol := range index.Metadata().ProjectionList {
		for _, a := range assignments {
			if a.ColumnIndex == keyCol {
				return true
			}
		}
	}
	return false
}

func NewUpdateExecutor(plan *planner.UpdateNode, heap *storage.HeapFile, child Executor, indexes []indexing.Index) *UpdateExecutor {
	affected := make([]indexing.Index, 0, len(indexes))
	for _, index := range indexes {
		if indexKeyChanged(index, plan.Assignments) {
			affected = append(affected, index)
		}
	}
	return &UpdateExecutor{
		plan:    plan,
		heap:    heap,
		desc:    heap.Schema(),
		child:   child,
		indexes: affected,
	}
}

func (e *UpdateExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *UpdateExecutor) Init(ctx *ExecutorContext) error {
	tupleSize := e.desc.BytesPerTuple()
	e.oldTuple = make([]byte, tupleSize)
	e.newTuple = make([]byte, tupleSize)
	e.keyBufferOld = make([]byte, tupleSize)
	e.keyBufferNew = make([]byte, tupleSize)

	e.executed = false
	e.cnt = 0
	e.ctx = ctx
	e.err = nil
	return e.child.Init(ctx)
}

func (e *UpdateExecutor) Next() bool {
	if !e.executed {
		for e.child.Next() {
			deltaTuple := e.child.Current()
			rid := deltaTuple.RID()
			common.Assert(!rid.IsNil(), "RID to update should not be nil")

			if err := e.heap.ReadTuple(rid, e.oldTuple); err != nil {
				if errors.Is(err, storage.ErrTupleDeleted) {
					// Concurrent deletion is normal, simply move on
					continue
				}
				e.err = err
				return false
			}
			oldRow := storage.FromRawTuple(e.oldTuple, e.desc, rid)

			copy(e.newTuple, e.oldTuple)
			for _, a := range e.plan.Assignments {
				e.desc.SetValue(e.newTuple, a.ColumnIndex, a.Value.Eval(oldRow))
			}

			if err := e.heap.UpdateTuple(rid, e.newTuple); err != nil {
				e.err = err
				return false
			}

			for _, index := range e.indexes {
				if err := e.updateIndex(index, e.oldTuple, e.newTuple, rid); err != nil {
					e.err = err
					return false
				}
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

func (e *UpdateExecutor) updateIndex(index indexing.Index, oldTuple, newTuple storage.RawTuple, rid common.RecordID) error {
	for i, col := range index.Metadata().ProjectionList {
		index.Metadata().KeySchema.SetValue(e.keyBufferOld, i, e.desc.GetValue(oldTuple, col))
	}
	oldKey := index.Metadata().AsKey(e.keyBufferOld)

	for i, col := range index.Metadata().ProjectionList {
		index.Metadata().KeySchema.SetValue(e.keyBufferNew, i, e.desc.GetValue(newTuple, col))
	}
	newKey := index.Metadata().AsKey(e.keyBufferNew)

	if !oldKey.Equals(newKey) {
		if err := index.DeleteEntry(oldKey, rid, e.ctx.GetTransaction()); err != nil {
			return err
		}
		if err := index.InsertEntry(newKey, rid, e.ctx.GetTransaction()); err != nil {
			return err
		}
	}
	return nil
}

func (e *UpdateExecutor) Current() storage.Tuple {
	return storage.FromValues(common.NewIntValue(int64(e.cnt)))
}

func (e *UpdateExecutor) Close() error {
	return e.child.Close()
}

func (e *UpdateExecutor) Error() error {
	if e.err != nil {
		return e.err
	}
	return e.child.Error()
}
