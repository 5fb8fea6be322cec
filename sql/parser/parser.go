// Package parser implements the recursive-descent SQL parser (C6 in the
// design). It turns a token stream from sql/lexer into the ast package's
// tree, rejecting malformed input with a SqlParserException that carries
// the offending token's line and column.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/lexer"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// Parser consumes tokens from a single SQL statement and builds an AST.
type Parser struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// New creates a Parser over the given SQL text.
func New(input string) (*Parser, error) {
	l := lexer.New()
	l.SetInput(input)
	p := &Parser{lex: l}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) fail(msg string) error {
	return csverrors.SqlParser.New(fmt.Sprintf("%s at %d:%d", msg, p.cur.Line, p.cur.Column))
}

func (p *Parser) isKeyword(kw string) bool {
	return p.cur.Kind == lexer.Keyword && p.cur.Value == kw
}

func (p *Parser) isPunct(v string) bool {
	return p.cur.Kind == lexer.Punctuation && p.cur.Value == v
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.fail("expected keyword " + kw)
	}
	return p.advance()
}

func (p *Parser) expectPunct(v string) error {
	if !p.isPunct(v) {
		return p.fail("expected '" + v + "'")
	}
	return p.advance()
}

func (p *Parser) expectIdentifier() (string, error) {
	if p.cur.Kind != lexer.Identifier && p.cur.Kind != lexer.QuotedIdentifier {
		return "", p.fail("expected identifier")
	}
	v := p.cur.Value
	return v, p.advance()
}

// ParseStatement parses a single top-level statement.
func (p *Parser) ParseStatement() (ast.Node, error) {
	switch {
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("DROP"):
		return p.parseDrop()
	case p.isKeyword("ALTER"):
		return p.parseAlterTable()
	case p.isKeyword("EXPLAIN"):
		return p.parseExplain()
	default:
		return nil, p.fail("expected a statement")
	}
}

func (p *Parser) parseExplain() (ast.Node, error) {
	if err := p.expectKeyword("EXPLAIN"); err != nil {
		return nil, err
	}
	mode := ast.ExplainExec
	switch {
	case p.isKeyword("AST"):
		mode = ast.ExplainAST
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.isKeyword("EXEC"):
		mode = ast.ExplainExec
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ExplainStatement{Mode: mode, Statement: stmt}, nil
}

// parseSelect parses a SELECT, then folds in any UNION/INTERSECT/EXCEPT
// continuations left-associatively via Next.
func (p *Parser) parseSelect() (*ast.SelectStatement, error) {
	stmt, err := p.parseSelectCore()
	if err != nil {
		return nil, err
	}

	head := stmt
	for {
		var op ast.SetOp
		switch {
		case p.isKeyword("UNION"):
			op = ast.Union
		case p.isKeyword("INTERSECT"):
			op = ast.Intersect
		case p.isKeyword("EXCEPT"):
			op = ast.Except
		default:
			return head, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("ALL") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		next, err := p.parseSelectCore()
		if err != nil {
			return nil, err
		}
		stmt.SetOperator = op
		stmt.Next = next
		stmt = next
	}
}

func (p *Parser) parseSelectCore() (*ast.SelectStatement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &ast.SelectStatement{}

	if p.isKeyword("DISTINCT") {
		stmt.Distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.isKeyword("ALL") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = cols

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseFromList()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if p.isKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("GROUP") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		stmt.GroupBy, err = p.parseExprList()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("HAVING") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.Having, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("ORDER") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		stmt.OrderBy, err = p.parseOrderList()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("LIMIT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.Limit, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("OFFSET") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.Offset, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (p *Parser) parseSelectList() ([]ast.Expr, error) {
	var cols []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("AS") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			alias, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			e = &ast.AliasedExpr{Expr: e, Alias: alias}
		} else if p.cur.Kind == lexer.Identifier || p.cur.Kind == lexer.QuotedIdentifier {
			alias, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			e = &ast.AliasedExpr{Expr: e, Alias: alias}
		}
		cols = append(cols, e)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return cols, nil
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var list []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return list, nil
}

func (p *Parser) parseOrderList() ([]ast.OrderItem, error) {
	var items []ast.OrderItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := ast.OrderItem{Expr: e}
		if p.isKeyword("DESC") {
			item.Descending = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("ASC") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseFromList() ([]*ast.TableRef, error) {
	var refs []*ast.TableRef
	for {
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		for {
			join, ok, err := p.tryParseJoin()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			ref.Joins = append(ref.Joins, join)
		}
		refs = append(refs, ref)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return refs, nil
}

func (p *Parser) parseTableRef() (*ast.TableRef, error) {
	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		ref := &ast.TableRef{Subquery: sub}
		if err := p.maybeParseAlias(&ref.Alias); err != nil {
			return nil, err
		}
		return ref, nil
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	ref := &ast.TableRef{Table: name}
	if err := p.maybeParseAlias(&ref.Alias); err != nil {
		return nil, err
	}
	return ref, nil
}

func (p *Parser) maybeParseAlias(out *string) error {
	if p.isKeyword("AS") {
		if err := p.advance(); err != nil {
			return err
		}
		a, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		*out = a
		return nil
	}
	if p.cur.Kind == lexer.Identifier || p.cur.Kind == lexer.QuotedIdentifier {
		a, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		*out = a
	}
	return nil
}

func (p *Parser) tryParseJoin() (ast.Join, bool, error) {
	natural := false
	if p.isKeyword("NATURAL") {
		natural = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
	}

	kind := ast.InnerJoin
	matched := false
	switch {
	case p.isKeyword("INNER"):
		matched = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
	case p.isKeyword("LEFT"):
		kind = ast.LeftJoin
		matched = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
		if p.isKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return ast.Join{}, false, err
			}
		}
	case p.isKeyword("RIGHT"):
		kind = ast.RightJoin
		matched = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
		if p.isKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return ast.Join{}, false, err
			}
		}
	case p.isKeyword("FULL"):
		kind = ast.FullJoin
		matched = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
		if p.isKeyword("OUTER") {
			if err := p.advance(); err != nil {
				return ast.Join{}, false, err
			}
		}
	case p.isKeyword("CROSS"):
		kind = ast.CrossJoin
		matched = true
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
	case p.isKeyword("JOIN"):
		matched = true
	}

	if !matched {
		if natural {
			return ast.Join{}, false, p.fail("expected JOIN after NATURAL")
		}
		return ast.Join{}, false, nil
	}

	if err := p.expectKeyword("JOIN"); err != nil {
		return ast.Join{}, false, err
	}

	right, err := p.parseTableRef()
	if err != nil {
		return ast.Join{}, false, err
	}

	join := ast.Join{Kind: kind, Natural: natural, Right: right}

	if natural || kind == ast.CrossJoin {
		return join, true, nil
	}

	if p.isKeyword("ON") {
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
		join.On, err = p.parseExpr()
		if err != nil {
			return ast.Join{}, false, err
		}
	} else if p.isKeyword("USING") {
		if err := p.advance(); err != nil {
			return ast.Join{}, false, err
		}
		if err := p.expectPunct("("); err != nil {
			return ast.Join{}, false, err
		}
		for {
			col, err := p.expectIdentifier()
			if err != nil {
				return ast.Join{}, false, err
			}
			join.Using = append(join.Using, col)
			if p.isPunct(",") {
				if err := p.advance(); err != nil {
					return ast.Join{}, false, err
				}
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Join{}, false, err
		}
	}

	return join, true, nil
}

// Expression grammar, lowest to highest precedence:
//   or -> and -> not -> comparison -> concat -> additive -> multiplicative -> unary -> primary

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.isKeyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	switch {
	case p.cur.Kind == lexer.Punctuation && comparisonOps[p.cur.Value]:
		op := p.cur.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Op: op, Left: left, Right: right}, nil

	case p.isKeyword("IS"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		negated := false
		if p.isKeyword("NOT") {
			negated = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return &ast.IsNull{Operand: left, Negated: negated}, nil

	case p.isKeyword("BETWEEN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		low, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &ast.Between{Operand: left, Low: low, High: high}, nil

	case p.isKeyword("IN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ast.In{Operand: left, List: list}, nil

	case p.isKeyword("LIKE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		pattern, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &ast.Like{Operand: left, Pattern: pattern}, nil
	}

	return left, nil
}

func (p *Parser) parseConcat() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.cur.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.cur.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isPunct("+") || p.isPunct("-") {
		op := p.cur.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.isPunct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("SELECT") {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &ast.SubqueryExpr{Query: sub}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	case p.cur.Kind == lexer.IntegerLiteral:
		n, err := strconv.ParseInt(p.cur.Value, 10, 64)
		if err != nil {
			return nil, p.fail("invalid integer literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewInt(n)}, nil

	case p.cur.Kind == lexer.RealLiteral:
		f, err := strconv.ParseFloat(p.cur.Value, 64)
		if err != nil {
			return nil, p.fail("invalid real literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewReal(f)}, nil

	case p.cur.Kind == lexer.StringLiteral:
		s := p.cur.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewString(s)}, nil

	case p.cur.Kind == lexer.DateLiteral:
		t, err := time.Parse("2006-01-02", p.cur.Value)
		if err != nil {
			return nil, p.fail("invalid date literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewDate(t)}, nil

	case p.cur.Kind == lexer.TimeLiteral:
		t, err := time.Parse("15:04:05", p.cur.Value)
		if err != nil {
			return nil, p.fail("invalid time literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewTime(t)}, nil

	case p.cur.Kind == lexer.TimestampLiteral:
		t, err := time.Parse("2006-01-02T15:04:05", p.cur.Value)
		if err != nil {
			return nil, p.fail("invalid timestamp literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewTimestamp(t)}, nil

	case p.isKeyword("TRUE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewBoolean(true)}, nil

	case p.isKeyword("FALSE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewBoolean(false)}, nil

	case p.isKeyword("NULL"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Literal{Value: types.NewNull(types.None)}, nil

	case p.isKeyword("CAST"):
		return p.parseCast()

	case p.cur.Kind == lexer.Identifier || p.cur.Kind == lexer.QuotedIdentifier || p.cur.Kind == lexer.Keyword:
		return p.parseIdentifierOrCall()

	case p.isPunct("*"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ColumnRef{Column: "*"}, nil
	}

	return nil, p.fail("expected an expression")
}

func (p *Parser) parseCast() (ast.Expr, error) {
	if err := p.expectKeyword("CAST"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	typeName, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	to, err := types.ParseType(typeName)
	if err != nil {
		return nil, p.fail(err.Error())
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.Cast{Operand: operand, To: to}, nil
}

func (p *Parser) parseTypeName() (string, error) {
	if p.cur.Kind != lexer.Keyword && p.cur.Kind != lexer.Identifier {
		return "", p.fail("expected a type name")
	}
	name := p.cur.Value
	return name, p.advance()
}

// parseIdentifierOrCall disambiguates "name", "table.name" and
// "func(args...)"; aggregate/scalar function existence is checked by the
// symbol table, not here.
func (p *Parser) parseIdentifierOrCall() (ast.Expr, error) {
	name := p.cur.Value
	quoted := p.cur.Kind == lexer.QuotedIdentifier
	if err := p.advance(); err != nil {
		return nil, err
	}

	if !quoted && p.isPunct("(") {
		return p.parseFunctionCall(name)
	}

	if p.isPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct("*") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.ColumnRef{Table: name, Column: "*"}, nil
		}
		col, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.ColumnRef{Table: name, Column: col}, nil
	}

	return &ast.ColumnRef{Column: name}, nil
}

func (p *Parser) parseFunctionCall(name string) (ast.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	call := &ast.FunctionCall{Name: strings.ToUpper(name)}

	if p.isPunct("*") {
		call.Star = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil
	}

	if p.isPunct(")") {
		return call, p.advance()
	}

	if p.isKeyword("DISTINCT") {
		call.Distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	call.Args = args

	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseCreate() (ast.Node, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if p.isKeyword("TABLE") {
		return p.parseCreateTable()
	}
	if p.isKeyword("MAPPING") {
		return p.parseCreateMapping()
	}
	return nil, p.fail("expected TABLE or MAPPING")
}

func (p *Parser) parseCreateTable() (ast.Node, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	stmt := &ast.CreateTableStatement{Table: table}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	typeName, err := p.parseTypeName()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	typ, err := types.ParseType(typeName)
	if err != nil {
		return ast.ColumnDef{}, p.fail(err.Error())
	}
	col := ast.ColumnDef{Name: name, Type: typ}

	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return col, err
		}
		if p.cur.Kind == lexer.IntegerLiteral {
			n, _ := strconv.Atoi(p.cur.Value)
			col.Length = n
			if err := p.advance(); err != nil {
				return col, err
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return col, err
		}
	}

	for {
		switch {
		case p.isKeyword("NOT"):
			if err := p.advance(); err != nil {
				return col, err
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return col, err
			}
			col.NotNull = true
			continue
		case p.isKeyword("PRIMARY"):
			if err := p.advance(); err != nil {
				return col, err
			}
			if err := p.expectKeyword("KEY"); err != nil {
				return col, err
			}
			col.PrimaryKey = true
			continue
		case p.isKeyword("UNIQUE"):
			if err := p.advance(); err != nil {
				return col, err
			}
			col.Unique = true
			continue
		case p.isKeyword("DEFAULT"):
			if err := p.advance(); err != nil {
				return col, err
			}
			col.Default, err = p.parseExpr()
			if err != nil {
				return col, err
			}
			continue
		}
		break
	}

	return col, nil
}

func (p *Parser) parseCreateMapping() (ast.Node, error) {
	if err := p.expectKeyword("MAPPING"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &ast.CreateMappingStatement{Table: table}
	for {
		if p.cur.Kind != lexer.StringLiteral {
			return nil, p.fail("expected a file path string")
		}
		stmt.Files = append(stmt.Files, p.cur.Value)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return stmt, nil
}

func (p *Parser) parseDrop() (ast.Node, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if p.isKeyword("TABLE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		table, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.DropTableStatement{Table: table}, nil
	}
	if p.isKeyword("MAPPING") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		table, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.DropMappingStatement{Table: table}, nil
	}
	return nil, p.fail("expected TABLE or MAPPING")
}

func (p *Parser) parseAlterTable() (ast.Node, error) {
	if err := p.expectKeyword("ALTER"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	stmt := &ast.AlterTableStatement{Table: table}
	switch {
	case p.isKeyword("ADD"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("COLUMN") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		stmt.Action = ast.AddColumn
		stmt.Column, err = p.parseColumnDef()
		if err != nil {
			return nil, err
		}
	case p.isKeyword("DROP"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("COLUMN") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		stmt.Action = ast.DropColumn
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		stmt.Column = ast.ColumnDef{Name: name}
	default:
		return nil, p.fail("expected ADD or DROP")
	}
	return stmt, nil
}
