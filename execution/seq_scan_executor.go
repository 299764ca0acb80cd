package execution

import (
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// SeqScanExecutor implements a sequential scan over a table, skipping rows
// that fail any of the plan's predicates.
type SeqScanExecutor struct {
	plan *planner.SeqScanNode
	heap *storage.HeapFile
	desc *storage.RawTupleDesc

	scan      *storage.HeapScan
	rowBuffer storage.RawTuple
	current   storage.Tuple
	err       error
}

// NewSeqScanExecutor creates a new SeqScanExecutor.
func NewSeqScanExecutor(plan *planner.SeqScanNode, heap *storage.HeapFile) *SeqScanExecutor {
	return &SeqScanExecutor{
		plan: plan,
		heap: heap,
		desc: heap.Schema(),
	}
}

func (e *SeqScanExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *SeqScanExecutor) Init(ctx *ExecutorContext) error {
	scan, err := storage.NewHeapScan(e.heap)
	if err != nil {
		return err
	}
	e.scan = scan
	e.rowBuffer = make([]byte, e.desc.BytesPerTuple())
	e.err = nil
	return nil
}

// Next advances to the next RID whose record satisfies every predicate. Each
// matching tuple is copied out of its page frame into a buffer of its own
// before the cursor moves on, since the frame backing it may be unpinned (and
// so reused) the moment the scan crosses into the next page; a tuple returned
// by an earlier Current() is never overwritten by a later match.
func (e *SeqScanExecutor) Next() bool {
	for !e.scan.IsEnd() {
		rid, raw := e.scan.Current()
		t := storage.FromRawTuple(raw, e.desc, rid)

		matches := true
		for _, pred := range e.plan.Predicates {
			if !planner.ExprIsTrue(pred.Eval(t)) {
				matches = false
				break
			}
		}
		if matches {
			e.rowBuffer = make(storage.RawTuple, e.desc.BytesPerTuple())
			copy(e.rowBuffer, raw)
			e.current = storage.FromRawTuple(e.rowBuffer, e.desc, rid)
		}

		if err := e.scan.Next(); err != nil {
			e.err = err
			return false
		}
		if matches {
			return true
		}
	}
	return false
}

func (e *SeqScanExecutor) Current() storage.Tuple {
	return e.current
}

func (e *SeqScanExecutor) Error() error {
	return e.err
}

func (e *SeqScanExecutor) Close() error {
	if e.scan == nil {
		return nil
	}
	return e.scan.Close()
}
