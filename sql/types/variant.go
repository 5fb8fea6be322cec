package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/hashstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/csvsqldb/csvsqldb/csverrors"
)

// dateLayout, timeLayout and timestampLayout are the wire formats: DATE
// is YYYY-MM-DD, TIME is HH:MM:SS, TIMESTAMP is an ISO 8601 combination
// of the two.
const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02T15:04:05"
)

// Variant is a (type, optional value) pair. Nullness is orthogonal to the
// type: a null Variant still carries its Type, so "INT null" and "STRING
// null" remain distinct values.
type Variant struct {
	typ    Type
	isNull bool

	b bool
	i int64
	r float64
	s string
	t time.Time
}

// NewNull returns a null Variant of the given type.
func NewNull(t Type) Variant {
	return Variant{typ: t, isNull: true}
}

// NewBoolean returns a non-null BOOLEAN variant.
func NewBoolean(v bool) Variant { return Variant{typ: Boolean, b: v} }

// NewInt returns a non-null INT variant.
func NewInt(v int64) Variant { return Variant{typ: Int, i: v} }

// NewReal returns a non-null REAL variant.
func NewReal(v float64) Variant { return Variant{typ: Real, r: v} }

// NewString returns a non-null STRING variant.
func NewString(v string) Variant { return Variant{typ: String, s: v} }

// NewDate returns a non-null DATE variant.
func NewDate(v time.Time) Variant { return Variant{typ: Date, t: v} }

// NewTime returns a non-null TIME variant.
func NewTime(v time.Time) Variant { return Variant{typ: Time, t: v} }

// NewTimestamp returns a non-null TIMESTAMP variant.
func NewTimestamp(v time.Time) Variant { return Variant{typ: Timestamp, t: v} }

// Type returns the Variant's scalar type.
func (v Variant) Type() Type { return v.typ }

// IsNull reports whether the Variant carries no value.
func (v Variant) IsNull() bool { return v.isNull }

func (v Variant) checkType(want Type) error {
	if v.isNull {
		return csverrors.Sql.New("variant is null")
	}
	if v.typ != want {
		return csverrors.Sql.New("bad cast")
	}
	return nil
}

// AsBool returns the BOOLEAN payload, or an error if the Variant is null or
// not a BOOLEAN.
func (v Variant) AsBool() (bool, error) {
	if err := v.checkType(Boolean); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsInt returns the INT payload.
func (v Variant) AsInt() (int64, error) {
	if err := v.checkType(Int); err != nil {
		return 0, err
	}
	return v.i, nil
}

// AsReal returns the REAL payload.
func (v Variant) AsReal() (float64, error) {
	if err := v.checkType(Real); err != nil {
		return 0, err
	}
	return v.r, nil
}

// AsString returns the STRING payload.
func (v Variant) AsString() (string, error) {
	if err := v.checkType(String); err != nil {
		return "", err
	}
	return v.s, nil
}

// AsDate returns the DATE payload.
func (v Variant) AsDate() (time.Time, error) {
	if err := v.checkType(Date); err != nil {
		return time.Time{}, err
	}
	return v.t, nil
}

// AsTime returns the TIME payload.
func (v Variant) AsTime() (time.Time, error) {
	if err := v.checkType(Time); err != nil {
		return time.Time{}, err
	}
	return v.t, nil
}

// AsTimestamp returns the TIMESTAMP payload.
func (v Variant) AsTimestamp() (time.Time, error) {
	if err := v.checkType(Timestamp); err != nil {
		return time.Time{}, err
	}
	return v.t, nil
}

// String renders the Variant the way CSV/EXPLAIN output does: NULL
// serializes as the empty string, REAL with six fractional digits,
// BOOLEAN as 1|0, and DATE/TIME/TIMESTAMP in their wire layouts.
func (v Variant) String() string {
	if v.isNull {
		return ""
	}
	switch v.typ {
	case Boolean:
		if v.b {
			return "1"
		}
		return "0"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Real:
		return fmt.Sprintf("%.6f", v.r)
	case String:
		return v.s
	case Date:
		return v.t.Format(dateLayout)
	case Time:
		return v.t.Format(timeLayout)
	case Timestamp:
		return v.t.Format(timestampLayout)
	default:
		return ""
	}
}

// Hash implements hashstructure.Hashable. Variant's own fields are
// unexported, and hashstructure skips unexported struct fields when it
// walks a value by reflection, so without this hook every Variant
// (and every []Variant/block.Row built from them) hashes identically
// regardless of value. Hashing the type tag, nullness and canonical
// string form instead gives GROUP BY/JOIN/UNION/INTERSECT/EXCEPT a hash
// that actually depends on the value; a hash collision is still
// possible (two different values producing the same string form), so
// callers must re-compare the real values before treating two Variants
// as the same key — see SameAs.
func (v Variant) Hash() (uint64, error) {
	return hashstructure.Hash(struct {
		Type   Type
		IsNull bool
		Value  string
	}{Type: v.typ, IsNull: v.isNull, Value: v.String()}, nil)
}

// SameAs reports whether v and o share a grouping identity: same type,
// and either both null or equal non-null payloads. Unlike Equal, two
// nulls of the same type are SameAs each other — GROUP BY, DISTINCT and
// hash-join bucketing all need that (a GROUP BY on a nullable column
// must put every NULL in one group), where SQL `=` must not.
func (v Variant) SameAs(o Variant) bool {
	if v.typ != o.typ {
		return false
	}
	if v.isNull || o.isNull {
		return v.isNull == o.isNull
	}
	switch v.typ {
	case Boolean:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Real:
		return v.r == o.r
	case String:
		return v.s == o.s
	case Date, Time, Timestamp:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// SameValues reports whether a and b are the same length and every
// element is SameAs its counterpart: row/key identity for grouping,
// hash-join bucket matching and set-operation dedup.
func SameValues(a, b []Variant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].SameAs(b[i]) {
			return false
		}
	}
	return true
}

// Equal implements SQL equality: nulls never equal anything (including
// another null), per two-valued semantics for the `=` operator.
// IS [NOT] NULL must never be compiled to this method.
func (v Variant) Equal(o Variant) (bool, error) {
	if v.isNull || o.isNull {
		return false, nil
	}
	if v.typ != o.typ {
		return false, csverrors.Sql.New(fmt.Sprintf("comparing Variants with different types (%s:%s)", v.typ, o.typ))
	}
	switch v.typ {
	case Boolean:
		return v.b == o.b, nil
	case Int:
		return v.i == o.i, nil
	case Real:
		return v.r == o.r, nil
	case String:
		return v.s == o.s, nil
	case Date, Time, Timestamp:
		return v.t.Equal(o.t), nil
	default:
		return false, nil
	}
}

// Less implements total ordering between two non-null Variants of the same
// type. A null operand makes the comparison false, matching Equal.
func (v Variant) Less(o Variant) (bool, error) {
	if v.isNull || o.isNull {
		return false, nil
	}
	if v.typ != o.typ {
		return false, csverrors.Sql.New(fmt.Sprintf("comparing Variants with different types (%s:%s)", v.typ, o.typ))
	}
	switch v.typ {
	case Boolean:
		return !v.b && o.b, nil
	case Int:
		return v.i < o.i, nil
	case Real:
		return v.r < o.r, nil
	case String:
		return v.s < o.s, nil
	case Date, Time, Timestamp:
		return v.t.Before(o.t), nil
	default:
		return false, nil
	}
}

// AddAssign implements the `+=` compound operator used by aggregates such
// as SUM. INT+REAL stays INT (the double is truncated); REAL+anything
// stays REAL.
func (v *Variant) AddAssign(o Variant) error {
	if v.isNull || o.isNull {
		return csverrors.Sql.New("cannot add to null")
	}
	if !v.typ.IsNumeric() {
		return csverrors.Sql.New("cannot add to non numeric types")
	}
	if v.typ != o.typ && (!v.typ.IsNumeric() || !o.typ.IsNumeric()) {
		return csverrors.Sql.New(fmt.Sprintf("adding Variants with different types (%s:%s)", v.typ, o.typ))
	}

	switch v.typ {
	case Int:
		switch o.typ {
		case Int:
			v.i += o.i
		case Real:
			v.i += int64(o.r)
		default:
			return csverrors.Sql.New("cannot add to non numeric types")
		}
	case Real:
		switch o.typ {
		case Int:
			v.r += float64(o.i)
		case Real:
			v.r += o.r
		default:
			return csverrors.Sql.New("cannot add to non numeric types")
		}
	}
	return nil
}

// DivAssign implements the `/=` compound operator. Division by a numeric
// zero raises the (deliberately misspelled, kept for backward wording
// compatibility) "cannot devide by null" error; dividing by a
// null raises "cannot devide with null".
func (v *Variant) DivAssign(o Variant) error {
	if o.isNull {
		return csverrors.Sql.New("cannot devide with null")
	}
	if !v.typ.IsNumeric() || !o.typ.IsNumeric() {
		return csverrors.Sql.New("cannot divide non numeric types")
	}
	if v.isNull {
		return csverrors.Sql.New("cannot devide with null")
	}

	var divisorIsZero bool
	switch o.typ {
	case Int:
		divisorIsZero = o.i == 0
	case Real:
		divisorIsZero = o.r == 0
	}
	if divisorIsZero {
		return csverrors.Sql.New("cannot devide by null")
	}

	switch v.typ {
	case Int:
		switch o.typ {
		case Int:
			v.i /= o.i
		case Real:
			v.i = int64(float64(v.i) / o.r)
		}
	case Real:
		switch o.typ {
		case Int:
			v.r /= float64(o.i)
		case Real:
			v.r /= o.r
		}
	}
	return nil
}

// Cast converts the Variant to the requested type following:
// STRING parses into any other type; numeric widening/truncation between
// INT and REAL; BOOLEAN<->INT maps true/false to 1/0; date/time
// subtraction is handled separately by the caller (Sub), not by Cast.
func (v Variant) Cast(to Type) (Variant, error) {
	if v.isNull {
		return NewNull(to), nil
	}
	if v.typ == to {
		return v, nil
	}

	switch to {
	case Int:
		switch v.typ {
		case Real:
			return NewInt(int64(v.r)), nil
		case Boolean:
			if v.b {
				return NewInt(1), nil
			}
			return NewInt(0), nil
		case String:
			n, err := cast.ToInt64E(strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to INT", v.s)
			}
			return NewInt(n), nil
		}
	case Real:
		switch v.typ {
		case Int:
			return NewReal(float64(v.i)), nil
		case String:
			f, err := cast.ToFloat64E(strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to REAL", v.s)
			}
			return NewReal(f), nil
		}
	case Boolean:
		switch v.typ {
		case Int:
			return NewBoolean(v.i != 0), nil
		case String:
			b, err := cast.ToBoolE(strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to BOOLEAN", v.s)
			}
			return NewBoolean(b), nil
		}
	case String:
		return NewString(v.String()), nil
	case Date:
		if v.typ == String {
			t, err := time.Parse(dateLayout, strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to DATE", v.s)
			}
			return NewDate(t), nil
		}
	case Time:
		if v.typ == String {
			t, err := time.Parse(timeLayout, strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to TIME", v.s)
			}
			return NewTime(t), nil
		}
	case Timestamp:
		if v.typ == String {
			t, err := time.Parse(timestampLayout, strings.TrimSpace(v.s))
			if err != nil {
				return Variant{}, errors.Wrapf(err, "cannot cast %q to TIMESTAMP", v.s)
			}
			return NewTimestamp(t), nil
		}
	}

	return Variant{}, csverrors.Sql.New(fmt.Sprintf("cannot cast %s to %s", v.typ, to))
}

// Sub implements the date/time subtraction rules: DATE-DATE yields INT
// days, TIME-TIME yields INT microseconds, TIMESTAMP-TIMESTAMP yields
// INT seconds.
func (v Variant) Sub(o Variant) (Variant, error) {
	if v.isNull || o.isNull {
		return NewNull(Int), nil
	}
	if v.typ != o.typ {
		return Variant{}, csverrors.Sql.New(fmt.Sprintf("comparing Variants with different types (%s:%s)", v.typ, o.typ))
	}
	switch v.typ {
	case Date:
		days := int64(v.t.Sub(o.t).Hours() / 24)
		return NewInt(days), nil
	case Time:
		micros := v.t.Sub(o.t).Microseconds()
		return NewInt(micros), nil
	case Timestamp:
		secs := int64(v.t.Sub(o.t).Seconds())
		return NewInt(secs), nil
	default:
		return Variant{}, csverrors.Sql.New("cannot subtract non date/time types")
	}
}

// And implements SQL three-valued AND.
func And(l, r Variant) (Variant, error) {
	lb, lNull := boolOrNull(l)
	rb, rNull := boolOrNull(r)
	if !lNull && !lb {
		return NewBoolean(false), nil
	}
	if !rNull && !rb {
		return NewBoolean(false), nil
	}
	if lNull || rNull {
		return NewNull(Boolean), nil
	}
	return NewBoolean(lb && rb), nil
}

// Or implements SQL three-valued OR.
func Or(l, r Variant) (Variant, error) {
	lb, lNull := boolOrNull(l)
	rb, rNull := boolOrNull(r)
	if !lNull && lb {
		return NewBoolean(true), nil
	}
	if !rNull && rb {
		return NewBoolean(true), nil
	}
	if lNull || rNull {
		return NewNull(Boolean), nil
	}
	return NewBoolean(lb || rb), nil
}

// Not implements SQL three-valued NOT.
func Not(v Variant) (Variant, error) {
	b, isNull := boolOrNull(v)
	if isNull {
		return NewNull(Boolean), nil
	}
	return NewBoolean(!b), nil
}

func boolOrNull(v Variant) (val bool, isNull bool) {
	if v.IsNull() {
		return false, true
	}
	b, _ := v.AsBool()
	return b, false
}
