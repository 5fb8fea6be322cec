package vm

import (
	"fmt"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/ast"
)

// VarRef identifies one row column a compiled program reads via PUSHVAR;
// slot is its index into Compiler.Variables().
type VarRef struct {
	Table  string
	Column string
}

// FuncCallOperand is the FUNC opcode's operand: the function name, the
// number of arguments pushed before it, whether it is the COUNT(*) form,
// and DISTINCT (meaningful only to aggregate step functions).
type FuncCallOperand struct {
	Name     string
	Arity    int
	Star     bool
	Distinct bool
}

// InOperand is the IN opcode's operand: how many list items follow the
// operand on the stack.
type InOperand struct {
	Count int
}

// Compiler lowers expressions into postfix Instruction sequences,
// allocating one variable slot per distinct ColumnRef encountered.
type Compiler struct {
	vars   []VarRef
	varIdx map[VarRef]int
}

// NewCompiler creates an empty Compiler.
func NewCompiler() *Compiler {
	return &Compiler{varIdx: map[VarRef]int{}}
}

// Variables returns the variable slots referenced by every expression
// compiled so far, in allocation order.
func (c *Compiler) Variables() []VarRef { return c.vars }

func (c *Compiler) slotFor(ref VarRef) int {
	if idx, ok := c.varIdx[ref]; ok {
		return idx
	}
	idx := len(c.vars)
	c.vars = append(c.vars, ref)
	c.varIdx[ref] = idx
	return idx
}

// Compile lowers a single expression to postfix instructions.
func (c *Compiler) Compile(e ast.Expr) ([]Instruction, error) {
	var out []Instruction
	if err := c.emit(e, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Compiler) emit(e ast.Expr, out *[]Instruction) error {
	switch n := e.(type) {
	case *ast.Literal:
		*out = append(*out, Instruction{Op: PUSH, Operand: n.Value})

	case *ast.ColumnRef:
		slot := c.slotFor(VarRef{Table: n.Table, Column: n.Column})
		*out = append(*out, Instruction{Op: PUSHVAR, Operand: slot})

	case *ast.AliasedExpr:
		return c.emit(n.Expr, out)

	case *ast.UnaryOp:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		switch n.Op {
		case "+":
			*out = append(*out, Instruction{Op: PLUS})
		case "-":
			*out = append(*out, Instruction{Op: MINUS})
		case "NOT":
			*out = append(*out, Instruction{Op: NOT})
		default:
			return csverrors.Internal.New(fmt.Sprintf("unknown unary operator '%s'", n.Op))
		}

	case *ast.BinaryOp:
		if err := c.emit(n.Left, out); err != nil {
			return err
		}
		if err := c.emit(n.Right, out); err != nil {
			return err
		}
		op, err := binaryOpcode(n.Op)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: op})

	case *ast.IsNull:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		if n.Negated {
			*out = append(*out, Instruction{Op: ISNOTNULL})
		} else {
			*out = append(*out, Instruction{Op: ISNULL})
		}

	case *ast.Between:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		if err := c.emit(n.Low, out); err != nil {
			return err
		}
		if err := c.emit(n.High, out); err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: BETWEEN})

	case *ast.In:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		for _, item := range n.List {
			if err := c.emit(item, out); err != nil {
				return err
			}
		}
		*out = append(*out, Instruction{Op: IN, Operand: InOperand{Count: len(n.List)}})

	case *ast.Like:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		if err := c.emit(n.Pattern, out); err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: LIKE})

	case *ast.Cast:
		if err := c.emit(n.Operand, out); err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: CAST, Operand: n.To})

	case *ast.FunctionCall:
		arity := len(n.Args)
		for _, a := range n.Args {
			if err := c.emit(a, out); err != nil {
				return err
			}
		}
		*out = append(*out, Instruction{Op: FUNC, Operand: FuncCallOperand{
			Name: n.Name, Arity: arity, Star: n.Star, Distinct: n.Distinct,
		}})

	default:
		return csverrors.Internal.New(fmt.Sprintf("cannot compile expression of type %T", e))
	}
	return nil
}

func binaryOpcode(op string) (Opcode, error) {
	switch op {
	case "+":
		return ADD, nil
	case "-":
		return SUB, nil
	case "*":
		return MUL, nil
	case "/":
		return DIV, nil
	case "%":
		return MOD, nil
	case "=":
		return EQ, nil
	case "<>":
		return NEQ, nil
	case "<":
		return LT, nil
	case "<=":
		return LE, nil
	case ">":
		return GT, nil
	case ">=":
		return GE, nil
	case "AND":
		return AND, nil
	case "OR":
		return OR, nil
	case "||":
		return CONCAT, nil
	default:
		return NOP, csverrors.Internal.New(fmt.Sprintf("unknown binary operator '%s'", op))
	}
}
