package planner

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// Expr is a node in a predicate expression tree, evaluated against a single
// tuple as it flows through an executor. Trimmed to what SeqScan and
// NestedLoopJoin's conjunctive predicates need: column/constant references
// and type-aware comparisons. The teacher's fuller tree (boolean
// and/or/not, null checks, arithmetic, string concat, LIKE) belongs to a SQL
// expression evaluator this repository doesn't have.
type Expr interface {
	Eval(t storage.Tuple) common.Value
	OutputType() common.Type
	String() string
}

// BoundValueExpr reads one column out of the tuple it is evaluated against.
type BoundValueExpr struct {
	fieldOffset int
	outputType  common.Type
	name        string
}

func NewColumnValueExpression(fieldOffset int, tupleSchema []common.Type, name string) *BoundValueExpr {
	return &BoundValueExpr{
		fieldOffset: fieldOffset,
		outputType:  tupleSchema[fieldOffset],
		name:        name,
	}
}

func (e *BoundValueExpr) Eval(t storage.Tuple) common.Value { return t.GetValue(e.fieldOffset) }
func (e *BoundValueExpr) OutputType() common.Type            { return e.outputType }
func (e *BoundValueExpr) String() string                     { return e.name }

// ConstantValueExpr ignores its input tuple and always evaluates to the same value.
type ConstantValueExpr struct {
	val common.Value
}

func NewConstantValueExpression(val common.Value) *ConstantValueExpr {
	return &ConstantValueExpr{val: val}
}

func (e *ConstantValueExpr) Eval(t storage.Tuple) common.Value { return e.val }
func (e *ConstantValueExpr) OutputType() common.Type            { return e.val.Type() }
func (e *ConstantValueExpr) String() string {
	if e.val.Type() == common.StringType {
		return fmt.Sprintf("'%s'", e.val.StringValue())
	}
	return fmt.Sprintf("%d", e.val.IntValue())
}

type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
)

func (c ComparisonType) String() string {
	switch c {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case GreaterThanOrEqual:
		return ">="
	case LessThanOrEqual:
		return "<="
	}
	return "???"
}

// ComparisonExpression delegates to the shared type-aware three-way
// comparator (common.Value.Compare) and maps its sign to the requested
// operator. Unknown operators fail closed — never matching — rather than
// panicking, since a plan producer is an external collaborator this layer
// must not trust blindly.
type ComparisonExpression struct {
	left     Expr
	right    Expr
	compType ComparisonType
}

func NewComparisonExpression(left Expr, right Expr, compType ComparisonType) *ComparisonExpression {
	return &ComparisonExpression{left: left, right: right, compType: compType}
}

func (e *ComparisonExpression) Eval(t storage.Tuple) common.Value {
	val1 := e.left.Eval(t)
	val2 := e.right.Eval(t)
	if val1.IsNull() || val2.IsNull() {
		return common.NewNullInt()
	}

	cmp := val1.Compare(val2)
	var result bool
	switch e.compType {
	case Equal:
		result = cmp == 0
	case NotEqual:
		result = cmp != 0
	case GreaterThan:
		result = cmp > 0
	case LessThan:
		result = cmp < 0
	case GreaterThanOrEqual:
		result = cmp >= 0
	case LessThanOrEqual:
		result = cmp <= 0
	default:
		result = false
	}
	if result {
		return common.NewIntValue(1)
	}
	return common.NewIntValue(0)
}

func (e *ComparisonExpression) OutputType() common.Type { return common.IntType }
func (e *ComparisonExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left.String(), e.compType.String(), e.right.String())
}

// ExprIsTrue reports whether v is the boolean-as-int representation of true:
// a non-null IntType value that is not zero.
func ExprIsTrue(v common.Value) bool {
	return v.Type() == common.IntType && !v.IsNull() && v.IntValue() != 0
}
