package execution

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// InsertExecutor drains its child, writing every tuple it produces into the
// target table's heap file and into every index declared on that table.
// Current() reports the count of rows inserted.
type InsertExecutor struct {
	plan    *planner.InsertNode
	child   Executor
	heap    *storage.HeapFile
	indexes []indexing.Index

	rowBuffer storage.RawTuple
	keyBuffer storage.RawTuple
	executed  bool
	cnt       int
	ctx       *ExecutorContext
	err       error
}

func NewInsertExecutor(plan *planner.InsertNode, child Executor, heap *storage.HeapFile, indexes []indexing.Index) *InsertExecutor {
	return &InsertExecutor{
		plan:    plan,
		child:   child,
		heap:    heap,
		indexes: indexes,
	}
}

func (e *InsertExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *InsertExecutor) Init(ctx *ExecutorContext) error {
	e.rowBuffer = make([]byte, e.heap.Schema().BytesPerTuple())
	e.keyBuffer = make([]byte, e.heap.Schema().BytesPerTuple())
	e.executed = false
	e.cnt = 0
	e.ctx = ctx
	e.err = nil
	return e.child.Init(ctx)
}

func (e *InsertExecutor) Next() bool {
	if !e.executed {
		for e.child.Next() {
			tuple := e.child.Current()
			tuple.WriteToBuffer(e.rowBuffer, e.heap.Schema())

			rid, err := e.heap.InsertTuple(e.rowBuffer)
			if err != nil {
				e.err = err
				return false
			}

			for _, index := range e.indexes {
				if err := e.insertIntoIndex(index, tuple, rid); err != nil {
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

func (e *InsertExecutor) insertIntoIndex(index indexing.Index, t storage.Tuple, rid common.RecordID) error {
	for i, col := range index.Metadata().ProjectionList {
		index.Metadata().KeySchema.SetValue(e.keyBuffer, i, t.GetValue(col))
	}
	return index.InsertEntry(index.Metadata().AsKey(e.keyBuffer), rid, e.ctx.GetTransaction())
}

func (e *InsertExecutor) Current() storage.Tuple {
	return storage.FromValues(common.NewIntValue(int64(e.cnt)))
}

func (e *InsertExecutor) Close() error {
	return e.child.Close()
}

func (e *InsertExecutor) Error() error {
	return e.err
}
