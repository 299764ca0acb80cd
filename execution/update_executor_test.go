package execution

import (
	"testing"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateExecutorAppliesAssignments(t *testing.T) {
	hf := newTestHeap(t, []common.Type{common.IntType, common.IntType})
	rid := insertRow(t, hf, common.NewIntValue(1), common.NewIntValue(100))

	child := newSliceExecutor(storage.FromRawTuple(nil, nil, rid))
	plan := planner.NewUpdateNode("t", nil, []planner.Assignment{
		{ColumnIndex: 1, Value: planner.NewConstantValueExpression(common.NewIntValue(999))},
	})
	exec := NewUpdateExecutor(plan, hf, child, nil)
	require.NoError(t, exec.Init(newTestContext()))
	exec.Next()
	require.NoError(t, exec.Error())

	dst := make(storage.RawTuple, hf.Schema().BytesPerTuple())
	require.NoError(t, hf.ReadTuple(rid, dst))
	assert.Equal(t, int64(1), hf.Schema().GetValue(dst, 0).IntValue())
	assert.Equal(t, int64(999), hf.Schema().GetValue(dst, 1).IntValue())
}

// Scenario: an assignment's expression can reference the row's own
// pre-update value (e.g. "qty = qty + 1"), so it must be evaluated against
// the row read from the heap, not against whatever the child tuple carries.
func TestUpdateExecutorAssignmentSeesOldRow(t *testing.T) {
	hf := newTestHeap(t, []common.Type{common.IntType})
	rid := insertRow(t, hf, common.NewIntValue(10))

	child := newSliceExecutor(storage.FromRawTuple(nil, nil, rid))
	doubled := planner.NewComparisonExpression(
		planner.NewColumnValueExpression(0, hf.Schema().GetFieldTypes(), "x"),
		planner.NewConstantValueExpression(common.NewIntValue(10)),
		planner.Equal,
	) // evaluates to 1 (true) since old value is exactly 10
	plan := planner.NewUpdateNode("t", nil, []planner.Assignment{
		{ColumnIndex: 0, Value: doubled},
	})
	exec := NewUpdateExecutor(plan, hf, child, nil)
	require.NoError(t, exec.Init(newTestContext()))
	exec.Next()
	require.NoError(t, exec.Error())

	dst := make(storage.RawTuple, hf.Schema().BytesPerTuple())
	require.NoError(t, hf.ReadTuple(rid, dst))
	assert.Equal(t, int64(1), hf.Schema().GetValue(dst, 0).IntValue())
}

func TestUpdateExecutorSkipsConcurrentlyDeletedRows(t *testing.T) {
	hf := newTestHeap(t, []common.Type{common.IntType})
	rid := insertRow(t, hf, common.NewIntValue(1))
	require.NoError(t, hf.DeleteTuple(rid))

	child := newSliceExecutor(storage.FromRawTuple(nil, nil, rid))
	plan := planner.NewUpdateNode("t", nil, []planner.Assignment{
		{ColumnIndex: 0, Value: planner.NewConstantValueExpression(common.NewIntValue(5))},
	})
	exec := NewUpdateExecutor(plan, hf, child, nil)
	require.NoError(t, exec.Init(newTestContext()))
	exec.Next()
	assert.NoError(t, exec.Error())
	cur := exec.Current()
	assert.Equal(t, int64(0), cur.GetValue(0).IntValue())
}

func TestUpdateExecutorOnlyRepairsIndexesWhoseKeyChanged(t *testing.T) {
	hf := newTestHeap(t, []common.Type{common.IntType, common.IntType})
	keyedIdx := indexing.NewBTreeIndex(storage.NewRawTupleDesc([]common.Type{common.IntType}), []int{0})
	untouchedIdx := indexing.NewBTreeIndex(storage.NewRawTupleDesc([]common.Type{common.IntType}), []int{1})

	rid := insertRow(t, hf, common.NewIntValue(1), common.NewIntValue(50))
	putKey := func(idx indexing.Index, v int64, rid common.RecordID) {
		kb := make(storage.RawTuple, idx.Metadata().KeySize())
		idx.Metadata().KeySchema.SetValue(kb, 0, common.NewIntValue(v))
		require.NoError(t, idx.InsertEntry(idx.Metadata().AsKey(kb), rid, nil))
	}
	putKey(keyedIdx, 1, rid)
	putKey(untouchedIdx, 50, rid)

	child := newSliceExecutor(storage.FromRawTuple(nil, nil, rid))
	plan := planner.NewUpdateNode("t", nil, []planner.Assignment{
		{ColumnIndex: 0, Value: planner.NewConstantValueExpression(common.NewIntValue(2))},
	})
	exec := NewUpdateExecutor(plan, hf, child, []indexing.Index{keyedIdx, untouchedIdx})
	require.NoError(t, exec.Init(newTestContext()))
	exec.Next()
	require.NoError(t, exec.Error())

	scanFor := func(idx indexing.Index, v int64) []common.RecordID {
		kb := make(storage.RawTuple, idx.Metadata().KeySize())
		idx.Metadata().KeySchema.SetValue(kb, 0, common.NewIntValue(v))
		res, err := idx.ScanKey(idx.Metadata().AsKey(kb), nil, nil)
		require.NoError(t, err)
		return res
	}
	assert.Empty(t, scanFor(keyedIdx, 1))
	assert.Len(t, scanFor(keyedIdx, 2), 1)
	// untouchedIdx's column wasn't in the assignment list, so it must not
	// have been consulted at all, and its entry is still there.
	assert.Len(t, scanFor(untouchedIdx, 50), 1)
}
