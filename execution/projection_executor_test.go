package execution

import (
	"testing"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionExecutorEvaluatesEachExpressionPerRow(t *testing.T) {
	child := newSliceExecutor(
		storage.FromValues(common.NewIntValue(1), common.NewStringValue("a")),
		storage.FromValues(common.NewIntValue(2), common.NewStringValue("b")),
	)
	exprs := []planner.Expr{
		planner.NewColumnValueExpression(1, []common.Type{common.IntType, common.StringType}, "name"),
	}
	plan := planner.NewProjectionNode(nil, exprs)
	exec := NewProjectionExecutor(plan, child)
	require.NoError(t, exec.Init(newTestContext()))
	defer exec.Close()

	var got []string
	for exec.Next() {
		cur := exec.Current()
		got = append(got, cur.GetValue(0).StringValue())
	}
	require.NoError(t, exec.Error())
	assert.Equal(t, []string{"a", "b"}, got)
}
