package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

type mapRow map[VarRef]types.Variant

func (m mapRow) Value(ref VarRef) (types.Variant, error) { return m[ref], nil }

type noFunctions struct{}

func (noFunctions) Call(name string, args []types.Variant) (types.Variant, error) {
	return types.Variant{}, nil
}

func compileAndEval(t *testing.T, e ast.Expr, row mapRow) types.Variant {
	t.Helper()
	c := NewCompiler()
	program, err := c.Compile(e)
	require.NoError(t, err)
	ev := NewEvaluator(noFunctions{})
	ev.BindVariables(c.Variables())
	v, err := ev.Eval(program, row)
	require.NoError(t, err)
	return v
}

func TestEvaluatorArithmetic(t *testing.T) {
	require := require.New(t)
	expr := &ast.BinaryOp{Op: "+", Left: &ast.Literal{Value: types.NewInt(1)}, Right: &ast.Literal{Value: types.NewInt(2)}}
	v := compileAndEval(t, expr, nil)
	i, _ := v.AsInt()
	require.Equal(int64(3), i)
}

func TestEvaluatorColumnRef(t *testing.T) {
	require := require.New(t)
	ref := &ast.ColumnRef{Table: "T", Column: "A"}
	row := mapRow{{Table: "T", Column: "A"}: types.NewInt(42)}
	v := compileAndEval(t, ref, row)
	i, _ := v.AsInt()
	require.Equal(int64(42), i)
}

func TestEvaluatorBetween(t *testing.T) {
	require := require.New(t)
	expr := &ast.Between{
		Operand: &ast.Literal{Value: types.NewInt(5)},
		Low:     &ast.Literal{Value: types.NewInt(1)},
		High:    &ast.Literal{Value: types.NewInt(10)},
	}
	v := compileAndEval(t, expr, nil)
	b, _ := v.AsBool()
	require.True(b)
}

func TestEvaluatorLike(t *testing.T) {
	require := require.New(t)
	expr := &ast.Like{
		Operand: &ast.Literal{Value: types.NewString("hello world")},
		Pattern: &ast.Literal{Value: types.NewString("hello%")},
	}
	v := compileAndEval(t, expr, nil)
	b, _ := v.AsBool()
	require.True(b)
}

func TestEvaluatorIsNullNeverUsesEQ(t *testing.T) {
	require := require.New(t)
	expr := &ast.IsNull{Operand: &ast.Literal{Value: types.NewNull(types.Int)}}
	v := compileAndEval(t, expr, nil)
	b, _ := v.AsBool()
	require.True(b)
}

func TestEvaluatorEmptyStackErrorMessage(t *testing.T) {
	require := require.New(t)
	ev := NewEvaluator(noFunctions{})
	_, err := ev.Eval([]Instruction{{Op: ADD}}, mapRow{})
	require.Error(err)
	require.Contains(err.Error(), "Cannot get next value, no more elements on stack")
}

func TestEvaluatorInOperator(t *testing.T) {
	require := require.New(t)
	expr := &ast.In{
		Operand: &ast.Literal{Value: types.NewInt(2)},
		List: []ast.Expr{
			&ast.Literal{Value: types.NewInt(1)},
			&ast.Literal{Value: types.NewInt(2)},
		},
	}
	v := compileAndEval(t, expr, nil)
	b, _ := v.AsBool()
	require.True(b)
}
