package vm

import (
	"regexp"
	"strings"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// FunctionRegistry is the subset of sql/function's Registry the
// evaluator needs: calling a scalar/aggregate function by name.
type FunctionRegistry interface {
	Call(name string, args []types.Variant) (types.Variant, error)
}

// Row resolves a variable slot (by table/column) to its current value;
// block iterators implement this over the row they are currently
// positioned on.
type Row interface {
	Value(ref VarRef) (types.Variant, error)
}

// Evaluator runs a compiled instruction sequence against a Row. slots
// maps a PUSHVAR instruction's operand (a slot index) back to the VarRef
// a Compiler allocated it for; set it once via BindVariables before
// evaluating any program compiled against that Compiler.
type Evaluator struct {
	functions FunctionRegistry
	likeCache map[string]*regexp.Regexp
	slots     []VarRef
}

// NewEvaluator creates an Evaluator that resolves functions via registry.
func NewEvaluator(registry FunctionRegistry) *Evaluator {
	return &Evaluator{functions: registry, likeCache: map[string]*regexp.Regexp{}}
}

// BindVariables records the slot table a compiled program's PUSHVAR
// instructions index into.
func (e *Evaluator) BindVariables(slots []VarRef) { e.slots = slots }

type stack struct {
	items []types.Variant
}

func (s *stack) push(v types.Variant) { s.items = append(s.items, v) }

func (s *stack) pop() (types.Variant, error) {
	if len(s.items) == 0 {
		return types.Variant{}, csverrors.Sql.New("Cannot get next value, no more elements on stack")
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// Eval runs program against row, returning the single resulting Variant.
func (e *Evaluator) Eval(program []Instruction, row Row) (types.Variant, error) {
	var s stack

	for _, instr := range program {
		switch instr.Op {
		case PUSH:
			s.push(instr.Operand.(types.Variant))

		case PUSHVAR:
			v, err := row.Value(e.varRefFromOperand(instr))
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case ADD, SUB, MUL, DIV, MOD:
			r, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			l, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := evalArith(instr.Op, l, r)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case PLUS:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case MINUS:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			neg, err := negate(v)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(neg)

		case EQ, NEQ, LT, LE, GT, GE:
			r, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			l, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := evalComparison(instr.Op, l, r)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case AND:
			r, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			l, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := types.And(l, r)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case OR:
			r, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			l, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := types.Or(l, r)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case NOT:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			nv, err := types.Not(v)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(nv)

		case CONCAT:
			r, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			l, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			if l.IsNull() || r.IsNull() {
				s.push(types.NewNull(types.String))
				continue
			}
			ls, _ := toStringLike(l)
			rs, _ := toStringLike(r)
			s.push(types.NewString(ls + rs))

		case CAST:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			cv, err := v.Cast(instr.Operand.(types.Type))
			if err != nil {
				return types.Variant{}, err
			}
			s.push(cv)

		case ISNULL:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			s.push(types.NewBoolean(v.IsNull()))

		case ISNOTNULL:
			v, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			s.push(types.NewBoolean(!v.IsNull()))

		case BETWEEN:
			high, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			low, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			operand, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := evalBetween(operand, low, high)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case IN:
			n := instr.Operand.(InOperand).Count
			items := make([]types.Variant, n)
			for i := n - 1; i >= 0; i-- {
				v, err := s.pop()
				if err != nil {
					return types.Variant{}, err
				}
				items[i] = v
			}
			operand, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			s.push(evalIn(operand, items))

		case LIKE:
			pattern, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			operand, err := s.pop()
			if err != nil {
				return types.Variant{}, err
			}
			v, err := e.evalLike(operand, pattern)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case FUNC:
			fo := instr.Operand.(FuncCallOperand)
			args := make([]types.Variant, fo.Arity)
			for i := fo.Arity - 1; i >= 0; i-- {
				v, err := s.pop()
				if err != nil {
					return types.Variant{}, err
				}
				args[i] = v
			}
			if e.functions == nil {
				return types.Variant{}, csverrors.Sql.New("function '" + fo.Name + "' not found")
			}
			v, err := e.functions.Call(fo.Name, args)
			if err != nil {
				return types.Variant{}, err
			}
			s.push(v)

		case NOP:
			// no operation

		default:
			return types.Variant{}, csverrors.Internal.New("unknown opcode")
		}
	}

	return s.pop()
}

// varRefFromOperand recovers the VarRef a PUSHVAR instruction's slot
// index names; the Evaluator is handed the slot table by the caller via
// BindVariables so it never needs the Compiler itself.
func (e *Evaluator) varRefFromOperand(instr Instruction) VarRef {
	return e.slots[instr.Operand.(int)]
}

func evalArith(op Opcode, l, r types.Variant) (types.Variant, error) {
	result := l
	var err error
	switch op {
	case ADD:
		err = result.AddAssign(r)
	case SUB:
		negR := r
		neg, nerr := negate(negR)
		if nerr != nil {
			return types.Variant{}, nerr
		}
		err = result.AddAssign(neg)
	case DIV:
		err = result.DivAssign(r)
	case MUL:
		return evalMul(l, r)
	case MOD:
		return evalMod(l, r)
	}
	if err != nil {
		return types.Variant{}, err
	}
	return result, nil
}

func evalMul(l, r types.Variant) (types.Variant, error) {
	if l.IsNull() || r.IsNull() {
		return types.NewNull(types.Real), nil
	}
	if l.Type() == types.Int && r.Type() == types.Int {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return types.NewInt(li * ri), nil
	}
	lf, err := toFloat(l)
	if err != nil {
		return types.Variant{}, err
	}
	rf, err := toFloat(r)
	if err != nil {
		return types.Variant{}, err
	}
	return types.NewReal(lf * rf), nil
}

func evalMod(l, r types.Variant) (types.Variant, error) {
	li, err := l.AsInt()
	if err != nil {
		return types.Variant{}, err
	}
	ri, err := r.AsInt()
	if err != nil {
		return types.Variant{}, err
	}
	if ri == 0 {
		return types.Variant{}, csverrors.Sql.New("cannot devide by null")
	}
	return types.NewInt(li % ri), nil
}

func negate(v types.Variant) (types.Variant, error) {
	if v.IsNull() {
		return v, nil
	}
	switch v.Type() {
	case types.Int:
		i, _ := v.AsInt()
		return types.NewInt(-i), nil
	case types.Real:
		f, _ := v.AsReal()
		return types.NewReal(-f), nil
	default:
		return types.Variant{}, csverrors.Sql.New("cannot negate non numeric type")
	}
}

func toFloat(v types.Variant) (float64, error) {
	if v.Type() == types.Int {
		i, err := v.AsInt()
		return float64(i), err
	}
	return v.AsReal()
}

func toStringLike(v types.Variant) (string, error) {
	if v.Type() == types.String {
		return v.AsString()
	}
	return v.String(), nil
}

func evalComparison(op Opcode, l, r types.Variant) (types.Variant, error) {
	switch op {
	case EQ:
		eq, err := l.Equal(r)
		return types.NewBoolean(eq), err
	case NEQ:
		eq, err := l.Equal(r)
		return types.NewBoolean(!eq), err
	case LT:
		lt, err := l.Less(r)
		return types.NewBoolean(lt), err
	case GT:
		lt, err := r.Less(l)
		return types.NewBoolean(lt), err
	case LE:
		gt, err := r.Less(l)
		return types.NewBoolean(!gt), err
	case GE:
		lt, err := l.Less(r)
		return types.NewBoolean(!lt), err
	default:
		return types.Variant{}, csverrors.Internal.New("unknown comparison opcode")
	}
}

func evalBetween(operand, low, high types.Variant) (types.Variant, error) {
	ge, err := evalComparison(GE, operand, low)
	if err != nil {
		return types.Variant{}, err
	}
	le, err := evalComparison(LE, operand, high)
	if err != nil {
		return types.Variant{}, err
	}
	return types.And(ge, le)
}

func evalIn(operand types.Variant, items []types.Variant) types.Variant {
	for _, item := range items {
		if eq, err := operand.Equal(item); err == nil && eq {
			return types.NewBoolean(true)
		}
	}
	return types.NewBoolean(false)
}

// likeToRegex converts a SQL LIKE pattern (% and _ wildcards, \ escapes)
// into an anchored regular expression.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

func (e *Evaluator) evalLike(operand, pattern types.Variant) (types.Variant, error) {
	if operand.IsNull() || pattern.IsNull() {
		return types.NewNull(types.Boolean), nil
	}
	ps, err := pattern.AsString()
	if err != nil {
		return types.Variant{}, err
	}
	re, ok := e.likeCache[ps]
	if !ok {
		re, err = regexp.Compile(likeToRegex(ps))
		if err != nil {
			return types.Variant{}, csverrors.Sql.New("invalid LIKE pattern '" + ps + "'")
		}
		e.likeCache[ps] = re
	}
	os, err := operand.AsString()
	if err != nil {
		return types.Variant{}, err
	}
	return types.NewBoolean(re.MatchString(os)), nil
}
