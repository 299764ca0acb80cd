package execution

import (
	"path/filepath"
	"testing"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/lkyu-ly/rucbase-go/transaction"
	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T, schema []common.Type) *storage.HeapFile {
	desc := storage.NewRawTupleDesc(schema)
	dm := storage.NewDiskManager(nil)
	path := filepath.Join(t.TempDir(), "heap.tbl")
	hf, err := storage.CreateHeapFile(path, dm, desc, 8, nil)
	require.NoError(t, err)
	return hf
}

func newTestContext() *ExecutorContext {
	return NewExecutorContext(transaction.NewTransactionContext(1))
}

func insertRow(t *testing.T, hf *storage.HeapFile, values ...common.Value) common.RecordID {
	buf := make(storage.RawTuple, hf.Schema().BytesPerTuple())
	for i, v := range values {
		hf.Schema().SetValue(buf, i, v)
	}
	rid, err := hf.InsertTuple(buf)
	require.NoError(t, err)
	return rid
}

// sliceExecutor replays a fixed list of tuples, standing in for a child
// executor whose own implementation isn't under test (e.g. feeding an
// InsertExecutor rows without going through a real ValuesExecutor, or
// feeding an UpdateExecutor rows already carrying a RID from a real scan).
type sliceExecutor struct {
	plan planner.PlanNode
	rows []storage.Tuple
	idx  int
}

func newSliceExecutor(rows ...storage.Tuple) *sliceExecutor {
	return &sliceExecutor{rows: rows}
}

func (e *sliceExecutor) PlanNode() planner.PlanNode { return e.plan }
func (e *sliceExecutor) Init(ctx *ExecutorContext) error {
	e.idx = -1
	return nil
}
func (e *sliceExecutor) Next() bool {
	e.idx++
	return e.idx < len(e.rows)
}
func (e *sliceExecutor) Current() storage.Tuple { return e.rows[e.idx] }
func (e *sliceExecutor) Error() error            { return nil }
func (e *sliceExecutor) Close() error            { return nil }
