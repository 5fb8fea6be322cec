package plan

import (
	"bufio"
	"io"
	"strings"

	"github.com/csvsqldb/csvsqldb/sql/block"
)

// OutputRowOperatorNode is the root sink of a physical plan: it pulls
// rows from child, formats each value through Variant.String(), and
// writes them to Writer as delimiter-separated fields, one row per
// line. It is also a valid RowIterator itself (Next still yields rows)
// so a caller can both stream results and capture them through a
// single pull-based protocol.
type OutputRowOperatorNode struct {
	child     Operator
	w         *bufio.Writer
	delimiter rune
	headerOut bool

	headerWritten bool
}

// NewOutputRowOperatorNode wraps child, writing formatted rows to w.
// emitHeader, when true, writes one header line of column names ahead
// of the first data row; any column name containing a lowercase letter
// is quoted, mirroring the lexer's rule that quoted identifiers retain
// case while unquoted ones are upper-cased on read.
func NewOutputRowOperatorNode(child Operator, w io.Writer, delimiter rune, emitHeader bool) *OutputRowOperatorNode {
	return &OutputRowOperatorNode{child: child, w: bufio.NewWriter(w), delimiter: delimiter, headerOut: emitHeader}
}

func (o *OutputRowOperatorNode) Columns() []ColumnInfo { return o.child.Columns() }

func quoteIfNeeded(name string) string {
	if strings.ToUpper(name) != name {
		return `"` + name + `"`
	}
	return name
}

func (o *OutputRowOperatorNode) writeHeader() error {
	cols := o.child.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIfNeeded(c.Name)
	}
	_, err := o.w.WriteString(strings.Join(names, string(o.delimiter)) + "\n")
	return err
}

// Next pulls the next row from child, writes its formatted line, and
// returns the row unchanged so callers can also consume it directly.
func (o *OutputRowOperatorNode) Next() (block.Row, error) {
	if o.headerOut && !o.headerWritten {
		if err := o.writeHeader(); err != nil {
			return nil, err
		}
		o.headerWritten = true
	}

	row, err := o.child.Next()
	if err != nil {
		if err == io.EOF {
			o.w.Flush()
		}
		return nil, err
	}

	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = v.String()
	}
	if _, werr := o.w.WriteString(strings.Join(fields, string(o.delimiter)) + "\n"); werr != nil {
		return nil, werr
	}
	return row, nil
}

func (o *OutputRowOperatorNode) Close() error {
	o.w.Flush()
	return o.child.Close()
}

func (o *OutputRowOperatorNode) Dump(indent int) string {
	return dumpLine(indent, "OutputRow") + o.child.Dump(indent+1)
}
