package function

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csvsqldb/csvsqldb/sql/types"
)

func TestCallUpperLower(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")

	v, err := r.Call("UPPER", []types.Variant{types.NewString("abc")})
	require.NoError(err)
	s, _ := v.AsString()
	require.Equal("ABC", s)

	v, err = r.Call("LOWER", []types.Variant{types.NewString("ABC")})
	require.NoError(err)
	s, _ = v.AsString()
	require.Equal("abc", s)
}

func TestCallUnknownFunctionReportsNotFound(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")
	_, err := r.Call("NOPE", nil)
	require.Error(err)
	require.Contains(err.Error(), "function 'NOPE' not found")
}

func TestCallWrongArityReportsCallingError(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")
	_, err := r.Call("UPPER", nil)
	require.Error(err)
	require.Contains(err.Error(), "calling function 'UPPER' with wrong parameter")
}

func TestSumAggregate(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")
	agg, err := r.NewAggregate("SUM")
	require.NoError(err)

	require.NoError(agg.Step([]types.Variant{types.NewInt(1)}))
	require.NoError(agg.Step([]types.Variant{types.NewInt(2)}))
	require.NoError(agg.Step([]types.Variant{types.NewNull(types.Int)}))

	v := agg.Finalize()
	i, _ := v.AsInt()
	require.Equal(int64(3), i)
}

func TestCountStarAggregate(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")
	agg, err := r.NewAggregate("COUNT")
	require.NoError(err)

	require.NoError(agg.Step(nil))
	require.NoError(agg.Step(nil))

	v := agg.Finalize()
	i, _ := v.AsInt()
	require.Equal(int64(2), i)
}

func TestMinMaxAggregate(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")

	min, _ := r.NewAggregate("MIN")
	max, _ := r.NewAggregate("MAX")
	for _, n := range []int64{5, 1, 9, 3} {
		require.NoError(min.Step([]types.Variant{types.NewInt(n)}))
		require.NoError(max.Step([]types.Variant{types.NewInt(n)}))
	}
	minV, _ := min.Finalize().AsInt()
	maxV, _ := max.Finalize().AsInt()
	require.Equal(int64(1), minV)
	require.Equal(int64(9), maxV)
}

func TestPow(t *testing.T) {
	require := require.New(t)
	r := NewRegistry("1.0")
	v, err := r.Call("POW", []types.Variant{types.NewReal(2), types.NewReal(3)})
	require.NoError(err)
	f, _ := v.AsReal()
	require.Equal(8.0, f)
}
