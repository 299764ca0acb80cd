package execution

import (
	"testing"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedLoopJoinExecutorMatchesOnPredicate(t *testing.T) {
	leftHf := newTestHeap(t, []common.Type{common.IntType})
	rightHf := newTestHeap(t, []common.Type{common.IntType})
	for i := 0; i < 3; i++ {
		insertRow(t, leftHf, common.NewIntValue(int64(i)))
	}
	for i := 0; i < 3; i++ {
		insertRow(t, rightHf, common.NewIntValue(int64(i)))
	}

	leftPlan := planner.NewSeqScanNode("l", leftHf.Schema().GetFieldTypes(), nil)
	rightPlan := planner.NewSeqScanNode("r", rightHf.Schema().GetFieldTypes(), nil)
	pred := planner.NewComparisonExpression(
		planner.NewColumnValueExpression(0, []common.Type{common.IntType, common.IntType}, "l.x"),
		planner.NewColumnValueExpression(1, []common.Type{common.IntType, common.IntType}, "r.x"),
		planner.Equal,
	)
	joinPlan := planner.NewNestedLoopJoinNode(leftPlan, rightPlan, pred)

	left := NewSeqScanExecutor(leftPlan, leftHf)
	right := NewSeqScanExecutor(rightPlan, rightHf)
	join := NewNestedLoopJoinExecutor(joinPlan, left, right)

	require.NoError(t, join.Init(newTestContext()))
	defer join.Close()

	matches := 0
	for join.Next() {
		tuple := join.Current()
		assert.Equal(t, tuple.GetValue(0).IntValue(), tuple.GetValue(1).IntValue())
		matches++
	}
	require.NoError(t, join.Error())
	assert.Equal(t, 3, matches)
}

func TestNestedLoopJoinExecutorCrossProductWhenAlwaysTrue(t *testing.T) {
	leftHf := newTestHeap(t, []common.Type{common.IntType})
	rightHf := newTestHeap(t, []common.Type{common.IntType})
	insertRow(t, leftHf, common.NewIntValue(1))
	insertRow(t, leftHf, common.NewIntValue(2))
	insertRow(t, rightHf, common.NewIntValue(10))
	insertRow(t, rightHf, common.NewIntValue(20))
	insertRow(t, rightHf, common.NewIntValue(30))

	leftPlan := planner.NewSeqScanNode("l", leftHf.Schema().GetFieldTypes(), nil)
	rightPlan := planner.NewSeqScanNode("r", rightHf.Schema().GetFieldTypes(), nil)
	alwaysTrue := planner.NewComparisonExpression(
		planner.NewConstantValueExpression(common.NewIntValue(1)),
		planner.NewConstantValueExpression(common.NewIntValue(1)),
		planner.Equal,
	)
	joinPlan := planner.NewNestedLoopJoinNode(leftPlan, rightPlan, alwaysTrue)

	left := NewSeqScanExecutor(leftPlan, leftHf)
	right := NewSeqScanExecutor(rightPlan, rightHf)
	join := NewNestedLoopJoinExecutor(joinPlan, left, right)

	require.NoError(t, join.Init(newTestContext()))
	defer join.Close()

	count := 0
	for join.Next() {
		count++
	}
	require.NoError(t, join.Error())
	assert.Equal(t, 6, count)
}

func TestNestedLoopJoinExecutorOutputSchemaIsConcatenation(t *testing.T) {
	leftPlan := planner.NewSeqScanNode("l", []common.Type{common.IntType}, nil)
	rightPlan := planner.NewSeqScanNode("r", []common.Type{common.StringType}, nil)
	joinPlan := planner.NewNestedLoopJoinNode(leftPlan, rightPlan,
		planner.NewConstantValueExpression(common.NewIntValue(1)))

	assert.Equal(t, []common.Type{common.IntType, common.StringType}, joinPlan.OutputSchema())
}
