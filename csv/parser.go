// Package csv implements the CSV block reader (C3 in the design): a
// line parser feeding a producer goroutine that fills block.Block values
// and hands them to the consumer (a TableScanOperatorNode) through a
// bounded channel.
package csv

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// ColumnSpec is one column's name, scalar type and nullability, enough
// for the parser to convert a raw field into a typed Variant: an empty
// unquoted field is NULL for nullable columns, empty string for NOT
// NULL STRING columns.
type ColumnSpec struct {
	Name    string
	Type    types.Type
	NotNull bool
}

// Parser reads delimited lines from r and splits each into raw string
// fields, honoring quoted fields that may embed the delimiter and
// doubled-quote escapes ("" -> literal ").
type Parser struct {
	scanner       *bufio.Scanner
	delimiter     rune
	skipFirstLine bool
	started       bool
	lineNo        int
}

// NewParser creates a Parser over r.
func NewParser(r io.Reader, delimiter rune, skipFirstLine bool) *Parser {
	return &Parser{
		scanner:       bufio.NewScanner(r),
		delimiter:     delimiter,
		skipFirstLine: skipFirstLine,
	}
}

// NextLine returns the next line's raw fields, or io.EOF once the input
// is exhausted. It transparently skips the header line on first call if
// the mapping requested it.
func (p *Parser) NextLine() ([]string, error) {
	if !p.started {
		p.started = true
		if p.skipFirstLine {
			if !p.scanner.Scan() {
				return nil, io.EOF
			}
			p.lineNo++
		}
	}

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return nil, csverrors.Filesystem.New(errors.Wrap(err, "error reading CSV line").Error())
		}
		return nil, io.EOF
	}
	p.lineNo++
	return splitCSVLine(p.scanner.Text(), p.delimiter), nil
}

// LineNo returns the 1-based line number of the line last returned by
// NextLine (counting any skipped header line).
func (p *Parser) LineNo() int { return p.lineNo }

// splitCSVLine splits one line into fields honoring quoted fields that
// may embed the delimiter or a newline-free escaped quote ("").
func splitCSVLine(line string, delimiter rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cur.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteRune(c)
			}
		case c == '"' && cur.Len() == 0:
			inQuotes = true
		case c == delimiter:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// ParseField converts a raw field into a typed Variant according to
// spec.Type and spec.NotNull, raising a typed error on malformed input
// rather than silently coercing.
func ParseField(raw string, spec ColumnSpec) (types.Variant, error) {
	if raw == "" {
		if spec.Type == types.String && spec.NotNull {
			return types.NewString(""), nil
		}
		return types.NewNull(spec.Type), nil
	}

	switch spec.Type {
	case types.Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			switch strings.ToUpper(raw) {
			case "1", "TRUE":
				return types.NewBoolean(true), nil
			case "0", "FALSE":
				return types.NewBoolean(false), nil
			}
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid BOOLEAN field %q", raw).Error())
		}
		return types.NewBoolean(b), nil
	case types.Int:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid INT field %q", raw).Error())
		}
		return types.NewInt(i), nil
	case types.Real:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid REAL field %q", raw).Error())
		}
		return types.NewReal(f), nil
	case types.String:
		return types.NewString(raw), nil
	case types.Date:
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid DATE field %q", raw).Error())
		}
		return types.NewDate(t), nil
	case types.Time:
		t, err := time.Parse("15:04:05", raw)
		if err != nil {
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid TIME field %q", raw).Error())
		}
		return types.NewTime(t), nil
	case types.Timestamp:
		t, err := time.Parse("2006-01-02T15:04:05", raw)
		if err != nil {
			return types.Variant{}, csverrors.Sql.New(errors.Wrapf(err, "invalid TIMESTAMP field %q", raw).Error())
		}
		return types.NewTimestamp(t), nil
	default:
		return types.Variant{}, csverrors.Internal.New("column type unsupported: " + spec.Type.String())
	}
}
