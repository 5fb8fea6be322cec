// Package csverrors defines the error taxonomy shared by every subsystem of
// the engine. Each kind corresponds to one of the exception names in the
// specification: a lexer failure, a parser failure, a semantic/validation
// failure, a missing file mapping, a filesystem failure, a malformed catalog
// file, an out-of-range index, API misuse, or an internal invariant
// violation.
package csverrors

import (
	goerrors "gopkg.in/src-d/go-errors.v1"
)

var (
	// LexicalAnalysis is raised when the lexer cannot match any token at
	// the current position.
	LexicalAnalysis = goerrors.NewKind("lexical analysis error: %s")

	// SqlParser is raised on a grammar violation during parsing.
	SqlParser = goerrors.NewKind("sql parser error: %s")

	// Sql is raised for semantic errors: unknown column, ambiguous name,
	// wrong aggregate shape, type errors.
	Sql = goerrors.NewKind("sql error: %s")

	// Mapping is raised when no file matches a table's mapping, or a
	// mapping is missing entirely.
	Mapping = goerrors.NewKind("mapping error: %s")

	// Filesystem is raised when a data file cannot be opened or read.
	Filesystem = goerrors.NewKind("filesystem error: %s")

	// Json is raised when a catalog or mapping file cannot be parsed.
	Json = goerrors.NewKind("json error: %s")

	// Index is raised for out-of-range integer indices: block offsets,
	// column indices, variable slots.
	Index = goerrors.NewKind("index error: %s")

	// InvalidOperation is raised for API misuse: operators pulled before
	// connect, double-start of internal services, and similar.
	InvalidOperation = goerrors.NewKind("invalid operation: %s")

	// Internal is the catch-all for invariants the engine itself is
	// responsible for, not for caller error.
	Internal = goerrors.NewKind("internal error: %s")
)

// Position carries a line/column pair for lexer and parser errors.
type Position struct {
	Line   int
	Column int
}
