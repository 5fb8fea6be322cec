// Package types implements the eight-member scalar type system used
// throughout the engine (C1 in the design): the Type enum, the Variant
// tagged value, and the arithmetic/comparison/cast rules that the stack
// machine and the block iterators rely on.
package types

import "fmt"

// Type is one of the eight logical scalar types. NONE is the untyped null
// marker used for literal NULLs before they acquire a concrete type from
// context.
type Type int

const (
	None Type = iota
	Boolean
	Int
	Real
	String
	Date
	Time
	Timestamp
)

func (t Type) String() string {
	switch t {
	case None:
		return "NONE"
	case Boolean:
		return "BOOLEAN"
	case Int:
		return "INT"
	case Real:
		return "REAL"
	case String:
		return "STRING"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// IsNumeric reports whether a value of this type participates in
// arithmetic without a CAST.
func (t Type) IsNumeric() bool {
	return t == Int || t == Real
}

// ParseType maps a catalog/DDL type name to a Type. VARCHAR and its
// synonyms map to String; the caller is responsible for any declared
// length limit, which is not part of the scalar type itself.
func ParseType(name string) (Type, error) {
	switch name {
	case "BOOLEAN", "BOOL":
		return Boolean, nil
	case "INT", "INTEGER", "BIGINT":
		return Int, nil
	case "REAL", "DOUBLE", "FLOAT":
		return Real, nil
	case "STRING", "VARCHAR", "CHAR", "TEXT":
		return String, nil
	case "DATE":
		return Date, nil
	case "TIME":
		return Time, nil
	case "TIMESTAMP":
		return Timestamp, nil
	default:
		return None, fmt.Errorf("unknown type %q", name)
	}
}
