package csvsqldb

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/csvsqldb/csvsqldb/sql/block"
)

// Config configures an ExecutionEngine. A zero-value Config is valid;
// New fills in the defaults below for any field left unset.
type Config struct {
	// BlockCapacity is the byte budget of every block the engine's
	// BlockManager hands out.
	BlockCapacity int
	// MaxActiveBlocks caps how many blocks may be checked out of the
	// BlockManager at once.
	MaxActiveBlocks int
	// OutputDelimiter separates fields in OutputRowOperatorNode's
	// formatted rows.
	OutputDelimiter rune
	// EmitHeader, when true, writes a header line of column names ahead
	// of the first result row.
	EmitHeader bool
	// Logger receives structured per-statement log entries. A nil
	// Logger disables logging, not a panic.
	Logger *logrus.Logger
	// Tracer opens one span per executed statement and one child span
	// per phase (parse/validate/plan/execute). A nil Tracer disables
	// tracing.
	Tracer opentracing.Tracer
}

func (c Config) withDefaults() Config {
	if c.BlockCapacity <= 0 {
		c.BlockCapacity = block.DefaultBlockCapacity
	}
	if c.MaxActiveBlocks <= 0 {
		c.MaxActiveBlocks = block.DefaultMaxActiveBlocks
	}
	if c.OutputDelimiter == 0 {
		c.OutputDelimiter = ','
	}
	return c
}
