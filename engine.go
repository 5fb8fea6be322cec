// Package csvsqldb implements the embeddable SQL-over-CSV execution
// engine (C12 in the design): ExecutionEngine drives every statement
// through parse, validate, plan and execute, and is the one type most
// callers need to construct.
package csvsqldb

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	uuid "github.com/satori/go.uuid"

	"github.com/csvsqldb/csvsqldb/catalog"
	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/internal/audit"
	"github.com/csvsqldb/csvsqldb/sql/ast"
	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/parser"
	"github.com/csvsqldb/csvsqldb/sql/plan"
	"github.com/csvsqldb/csvsqldb/sql/symbol"
)

// Version is reported by the VERSION() scalar function and stamped into
// every log and audit entry.
const Version = "1.0.0"

// ExecutionEngine owns the catalog, the shared block pool and the
// function registry, and executes one statement at a time against the
// CSV files it was constructed with.
type ExecutionEngine struct {
	cfg      Config
	catalog  *catalog.Catalog
	registry *function.Registry
	manager  *block.BlockManager
	audit    audit.Hook
	log      *logrus.Entry
	files    []string

	current atomic.Pointer[plan.Builder]
}

// New creates an ExecutionEngine backed by cat, scanning files for the
// tables cat's mappings describe.
func New(cat *catalog.Catalog, files []string, cfg Config) *ExecutionEngine {
	cfg = cfg.withDefaults()

	hook := audit.Hook(audit.NopHook{})
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.Out = io.Discard
	} else {
		hook = audit.NewLogHook(logger)
	}

	return &ExecutionEngine{
		cfg:      cfg,
		catalog:  cat,
		registry: function.NewRegistry(Version),
		manager:  block.NewBlockManager(cfg.MaxActiveBlocks, cfg.BlockCapacity),
		audit:    hook,
		log:      logger.WithField("system", "engine"),
		files:    files,
	}
}

// Close releases the engine's block pool. The engine must not be used
// afterwards.
func (e *ExecutionEngine) Close() error {
	e.manager.Close()
	return nil
}

// Cancel asks whichever statement is currently executing to stop: each
// table scan it started stops before parsing its next CSV line. Safe to call
// from another goroutine; a no-op if nothing is running.
func (e *ExecutionEngine) Cancel() {
	if b := e.current.Load(); b != nil {
		b.Cancel()
	}
}

// Execute parses, validates, plans and runs a single statement. DQL
// (SELECT, possibly chained with UNION/INTERSECT/EXCEPT) writes its
// formatted result rows to w; DDL (CREATE/DROP/ALTER TABLE, CREATE/DROP
// MAPPING) mutates the catalog and writes nothing; EXPLAIN writes a
// dump of the AST or the physical plan instead of running it. Execute
// always returns a Stats describing the phases it reached, even on
// error.
func (e *ExecutionEngine) Execute(query string, w io.Writer) (Stats, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Stats{}, csverrors.Internal.New(err.Error())
	}
	stats := Stats{QueryID: id.String(), Query: query}
	start := time.Now()

	var span opentracing.Span
	if e.cfg.Tracer != nil {
		span = e.cfg.Tracer.StartSpan("csvsqldb.Execute")
		span.SetTag("query_id", stats.QueryID)
		span.SetTag("query", query)
		defer span.Finish()
	}

	node, err := e.parse(span, query, &stats)
	if err != nil {
		return e.finish(stats, start, err)
	}

	err = e.dispatch(span, node, w, &stats)
	return e.finish(stats, start, err)
}

func (e *ExecutionEngine) dispatch(parent opentracing.Span, node ast.Node, w io.Writer, stats *Stats) error {
	switch stmt := node.(type) {
	case *ast.SelectStatement:
		return e.executeSelect(parent, stmt, w, stats)
	case *ast.ExplainStatement:
		return e.executeExplain(parent, stmt, w, stats)
	case *ast.CreateTableStatement:
		return e.executeCreateTable(stmt)
	case *ast.DropTableStatement:
		return e.catalog.DropTable(stmt.Table)
	case *ast.AlterTableStatement:
		return e.executeAlterTable(stmt)
	case *ast.CreateMappingStatement:
		return e.executeCreateMapping(stmt)
	case *ast.DropMappingStatement:
		return e.catalog.RemoveMapping(stmt.Table)
	default:
		return csverrors.Sql.New(fmt.Sprintf("%T is not an executable statement", node))
	}
}

func (e *ExecutionEngine) parse(parent opentracing.Span, query string, stats *Stats) (ast.Node, error) {
	stats.StartParsing = time.Now()
	defer func() { stats.EndParsing = time.Now() }()

	span := e.childSpan(parent, "parse")
	if span != nil {
		defer span.Finish()
	}

	p, err := parser.New(query)
	if err != nil {
		return nil, csverrors.SqlParser.New(err.Error())
	}
	node, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (e *ExecutionEngine) validate(parent opentracing.Span, stmt *ast.SelectStatement, stats *Stats) error {
	stats.StartValidation = time.Now()
	defer func() { stats.EndValidation = time.Now() }()

	span := e.childSpan(parent, "validate")
	if span != nil {
		defer span.Finish()
	}

	return symbol.New(e.catalog).Validate(stmt)
}

func (e *ExecutionEngine) plan(parent opentracing.Span, stmt *ast.SelectStatement, stats *Stats) (plan.Operator, *plan.Builder, error) {
	stats.StartPlanning = time.Now()
	defer func() { stats.EndPlanning = time.Now() }()

	span := e.childSpan(parent, "plan")
	if span != nil {
		defer span.Finish()
	}

	b := plan.NewBuilder(e.catalog, e.registry, e.manager, e.files)
	op, err := b.Build(stmt)
	if err != nil {
		return nil, nil, err
	}
	return op, b, nil
}

func (e *ExecutionEngine) run(parent opentracing.Span, op plan.Operator, stats *Stats) (int64, error) {
	stats.StartExecution = time.Now()
	defer func() { stats.EndExecution = time.Now() }()

	span := e.childSpan(parent, "execute")
	if span != nil {
		defer span.Finish()
	}

	var rowCount int64
	for {
		_, err := op.Next()
		if err == io.EOF {
			return rowCount, nil
		}
		if err != nil {
			return rowCount, err
		}
		rowCount++
	}
}

func (e *ExecutionEngine) childSpan(parent opentracing.Span, name string) opentracing.Span {
	if e.cfg.Tracer == nil || parent == nil {
		return nil
	}
	return e.cfg.Tracer.StartSpan(name, opentracing.ChildOf(parent.Context()))
}

func (e *ExecutionEngine) executeSelect(parent opentracing.Span, stmt *ast.SelectStatement, w io.Writer, stats *Stats) error {
	if err := e.validate(parent, stmt, stats); err != nil {
		return err
	}

	op, b, err := e.plan(parent, stmt, stats)
	if err != nil {
		return err
	}
	e.current.Store(b)
	defer e.current.Store(nil)

	out := plan.NewOutputRowOperatorNode(op, w, e.cfg.OutputDelimiter, e.cfg.EmitHeader)
	defer out.Close()

	rowCount, err := e.run(parent, out, stats)
	stats.RowCount = rowCount
	return err
}

// QuerySelect parses, validates and plans a single SELECT statement and
// hands back the root physical Operator instead of running it through
// the formatted-output path Execute uses. It exists for callers such as
// the database/sql driver (package driver) that need typed block.Row
// values rather than a delimiter-separated text stream. The caller owns
// the returned Operator and must Close it; until it does, Cancel on this
// engine reaches the scan goroutines it started.
func (e *ExecutionEngine) QuerySelect(query string) (plan.Operator, Stats, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, Stats{}, csverrors.Internal.New(err.Error())
	}
	stats := Stats{QueryID: id.String(), Query: query}

	node, err := e.parse(nil, query, &stats)
	if err != nil {
		return nil, stats, err
	}
	stmt, ok := node.(*ast.SelectStatement)
	if !ok {
		return nil, stats, csverrors.Sql.New(fmt.Sprintf("%T does not produce rows", node))
	}
	if err := e.validate(nil, stmt, &stats); err != nil {
		return nil, stats, err
	}
	op, b, err := e.plan(nil, stmt, &stats)
	if err != nil {
		return nil, stats, err
	}
	e.current.Store(b)
	return op, stats, nil
}

func (e *ExecutionEngine) executeExplain(parent opentracing.Span, stmt *ast.ExplainStatement, w io.Writer, stats *Stats) error {
	switch stmt.Mode {
	case ast.ExplainAST:
		_, err := fmt.Fprintf(w, "%#v\n", stmt.Statement)
		return err
	case ast.ExplainExec:
		sel, ok := stmt.Statement.(*ast.SelectStatement)
		if !ok {
			return csverrors.Sql.New("EXPLAIN EXEC only supports SELECT statements")
		}
		if err := e.validate(parent, sel, stats); err != nil {
			return err
		}
		op, _, err := e.plan(parent, sel, stats)
		if err != nil {
			return err
		}
		defer op.Close()
		_, err = io.WriteString(w, op.Dump(0))
		return err
	default:
		return csverrors.Sql.New("unknown EXPLAIN mode")
	}
}

func (e *ExecutionEngine) executeCreateTable(stmt *ast.CreateTableStatement) error {
	cols := make([]catalog.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		def, err := literalDefault(c.Default)
		if err != nil {
			return err
		}
		cols[i] = catalog.Column{
			Name:       c.Name,
			Type:       c.Type,
			PrimaryKey: c.PrimaryKey,
			Unique:     c.Unique,
			NotNull:    c.NotNull,
			Default:    def,
			Length:     c.Length,
		}
	}
	return e.catalog.AddTable(catalog.TableData{Name: stmt.Table, Columns: cols})
}

func (e *ExecutionEngine) executeAlterTable(stmt *ast.AlterTableStatement) error {
	t, err := e.catalog.GetTable(stmt.Table)
	if err != nil {
		return err
	}

	switch stmt.Action {
	case ast.AddColumn:
		def, err := literalDefault(stmt.Column.Default)
		if err != nil {
			return err
		}
		t.Columns = append(t.Columns, catalog.Column{
			Name:       stmt.Column.Name,
			Type:       stmt.Column.Type,
			PrimaryKey: stmt.Column.PrimaryKey,
			Unique:     stmt.Column.Unique,
			NotNull:    stmt.Column.NotNull,
			Default:    def,
			Length:     stmt.Column.Length,
		})
	case ast.DropColumn:
		kept := t.Columns[:0]
		for _, c := range t.Columns {
			if c.Name != stmt.Column.Name {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(t.Columns) {
			return csverrors.Sql.New("column '" + stmt.Column.Name + "' not found")
		}
		t.Columns = kept
	default:
		return csverrors.Sql.New("unknown ALTER TABLE action")
	}
	return e.catalog.ReplaceTable(t)
}

func (e *ExecutionEngine) executeCreateMapping(stmt *ast.CreateMappingStatement) error {
	rules := make([]catalog.MappingRule, len(stmt.Files))
	for i, pattern := range stmt.Files {
		rules[i] = catalog.MappingRule{Pattern: pattern, Delimiter: ',', SkipFirstLine: false}
	}
	return e.catalog.AddMapping(catalog.Mapping{Name: stmt.Table, Mappings: rules})
}

// literalDefault renders a column's DEFAULT expression as the string
// catalog.Column stores; only constant defaults are supported.
func literalDefault(e ast.Expr) (string, error) {
	if e == nil {
		return "", nil
	}
	lit, ok := e.(*ast.Literal)
	if !ok {
		return "", csverrors.Sql.New("DEFAULT must be a constant value")
	}
	if lit.Value.IsNull() {
		return "", nil
	}
	return lit.Value.String(), nil
}

func (e *ExecutionEngine) finish(stats Stats, start time.Time, err error) (Stats, error) {
	stats.Err = err
	if stats.EndExecution.IsZero() {
		stats.EndExecution = time.Now()
	}
	e.audit.Query(stats.QueryID, stats.Query, time.Since(start), stats.RowCount, err)

	entry := e.log.WithFields(logrus.Fields{
		"query_id":  stats.QueryID,
		"duration":  time.Since(start),
		"row_count": stats.RowCount,
	})
	if err != nil {
		entry.WithError(err).Warn("query failed")
	} else {
		entry.Info("query executed")
	}
	return stats, err
}
