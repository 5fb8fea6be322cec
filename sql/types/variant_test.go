package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVariantAsAccessorsRejectNullAndWrongType(t *testing.T) {
	require := require.New(t)

	_, err := NewNull(Int).AsInt()
	require.EqualError(err, "sql error: variant is null")

	_, err = NewString("x").AsInt()
	require.EqualError(err, "sql error: bad cast")

	i, err := NewInt(42).AsInt()
	require.NoError(err)
	require.Equal(int64(42), i)
}

func TestVariantEqualNullNeverEqualsNull(t *testing.T) {
	require := require.New(t)

	eq, err := NewNull(Int).Equal(NewNull(Int))
	require.NoError(err)
	require.False(eq)

	eq, err = NewInt(1).Equal(NewInt(1))
	require.NoError(err)
	require.True(eq)
}

func TestVariantEqualDifferentTypesErrors(t *testing.T) {
	_, err := NewDate(mustDate("2020-01-01")).Equal(NewInt(1))
	require.EqualError(t, err, "sql error: comparing Variants with different types (DATE:INT)")
}

func TestVariantAddAssign(t *testing.T) {
	require := require.New(t)

	v := NewInt(1)
	require.NoError(v.AddAssign(NewReal(2.9)))
	i, _ := v.AsInt()
	require.Equal(int64(3), i)

	r := NewReal(1.5)
	require.NoError(r.AddAssign(NewInt(1)))
	f, _ := r.AsReal()
	require.Equal(2.5, f)

	n := NewNull(Int)
	require.EqualError(n.AddAssign(NewInt(1)), "sql error: cannot add to null")

	s := NewString("x")
	require.EqualError(s.AddAssign(NewInt(1)), "sql error: cannot add to non numeric types")
}

func TestVariantDivAssignByZero(t *testing.T) {
	require := require.New(t)

	v := NewInt(10)
	require.EqualError(v.DivAssign(NewInt(0)), "sql error: cannot devide by null")

	v = NewInt(10)
	require.NoError(v.DivAssign(NewInt(2)))
	i, _ := v.AsInt()
	require.Equal(int64(5), i)
}

func TestThreeValuedLogic(t *testing.T) {
	require := require.New(t)

	r, err := And(NewNull(Boolean), NewBoolean(false))
	require.NoError(err)
	require.False(r.IsNull())
	b, _ := r.AsBool()
	require.False(b)

	r, err = And(NewNull(Boolean), NewBoolean(true))
	require.NoError(err)
	require.True(r.IsNull())

	r, err = Or(NewNull(Boolean), NewBoolean(true))
	require.NoError(err)
	b, _ = r.AsBool()
	require.True(b)

	r, err = Or(NewNull(Boolean), NewBoolean(false))
	require.NoError(err)
	require.True(r.IsNull())

	r, err = Not(NewNull(Boolean))
	require.NoError(err)
	require.True(r.IsNull())
}

func TestVariantCast(t *testing.T) {
	require := require.New(t)

	v, err := NewString("4.5").Cast(Real)
	require.NoError(err)
	f, _ := v.AsReal()
	require.Equal(4.5, f)

	v, err = NewReal(4.9).Cast(Int)
	require.NoError(err)
	i, _ := v.AsInt()
	require.Equal(int64(4), i)

	v, err = NewBoolean(true).Cast(Int)
	require.NoError(err)
	i, _ = v.AsInt()
	require.Equal(int64(1), i)
}

func TestVariantSubDates(t *testing.T) {
	require := require.New(t)
	d1 := NewDate(mustDate("2020-01-01"))
	d2 := NewDate(mustDate("2019-01-01"))

	v, err := d1.Sub(d2)
	require.NoError(err)
	i, _ := v.AsInt()
	require.Equal(int64(365), i)
}

func mustDate(s string) time.Time {
	tt, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return tt
}
