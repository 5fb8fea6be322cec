// Package function implements the built-in scalar and aggregate function
// registry (C9 in the design). Scalar functions are plain
// Variant-in/Variant-out callables; aggregates additionally expose a
// Step/Finalize pair the grouping iterator drives one row at a time.
package function

import (
	"fmt"
	"strings"
	"time"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// ScalarFunc computes a result from already-evaluated arguments.
type ScalarFunc func(args []types.Variant) (types.Variant, error)

// Aggregate accumulates a running state across a group's rows.
type Aggregate interface {
	// Step folds one more row's argument values into the running state.
	Step(args []types.Variant) error
	// Finalize returns the aggregate's result. It does not reset the
	// state; every group gets a fresh instance from an AggregateFactory.
	Finalize() types.Variant
}

// AggregateFactory returns a fresh Aggregate instance for one group.
type AggregateFactory func() Aggregate

// Registry resolves function names to scalar callables or aggregate
// factories, used by sql/vm's Evaluator through the FunctionRegistry
// interface and by the grouping iterator for aggregate instantiation.
type Registry struct {
	scalars    map[string]ScalarFunc
	aggregates map[string]AggregateFactory
	version    string
}

// NewRegistry builds a Registry preloaded with every built-in function
// named in
func NewRegistry(version string) *Registry {
	r := &Registry{
		scalars:    map[string]ScalarFunc{},
		aggregates: map[string]AggregateFactory{},
		version:    version,
	}
	r.registerScalars()
	r.registerAggregates()
	return r
}

// IsAggregate reports whether name is a registered aggregate function.
func (r *Registry) IsAggregate(name string) bool {
	_, ok := r.aggregates[strings.ToUpper(name)]
	return ok
}

// NewAggregate instantiates the named aggregate's accumulator.
func (r *Registry) NewAggregate(name string) (Aggregate, error) {
	factory, ok := r.aggregates[strings.ToUpper(name)]
	if !ok {
		return nil, csverrors.Sql.New(fmt.Sprintf("function '%s' not found", name))
	}
	return factory(), nil
}

// Call implements vm.FunctionRegistry for scalar functions. Aggregates
// are never called this way: the grouping iterator drives them directly
// via NewAggregate/Step/Finalize.
func (r *Registry) Call(name string, args []types.Variant) (types.Variant, error) {
	fn, ok := r.scalars[strings.ToUpper(name)]
	if !ok {
		if r.IsAggregate(name) {
			return types.Variant{}, csverrors.Sql.New(fmt.Sprintf("function '%s' not found", name))
		}
		return types.Variant{}, csverrors.Sql.New(fmt.Sprintf("function '%s' not found", name))
	}
	v, err := fn(args)
	if err != nil {
		return types.Variant{}, csverrors.Sql.New(fmt.Sprintf("calling function '%s' with wrong parameter: %s", name, err))
	}
	return v, nil
}

func (r *Registry) registerScalars() {
	r.scalars["CURRENT_DATE"] = func(args []types.Variant) (types.Variant, error) {
		now := time.Now().UTC()
		return types.NewDate(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)), nil
	}
	r.scalars["CURRENT_TIME"] = func(args []types.Variant) (types.Variant, error) {
		now := time.Now().UTC()
		return types.NewTime(now), nil
	}
	r.scalars["CURRENT_TIMESTAMP"] = func(args []types.Variant) (types.Variant, error) {
		return types.NewTimestamp(time.Now().UTC()), nil
	}
	r.scalars["VERSION"] = func(args []types.Variant) (types.Variant, error) {
		return types.NewString(r.version), nil
	}
	r.scalars["UPPER"] = func(args []types.Variant) (types.Variant, error) {
		return stringUnary(args, strings.ToUpper)
	}
	r.scalars["LOWER"] = func(args []types.Variant) (types.Variant, error) {
		return stringUnary(args, strings.ToLower)
	}
	r.scalars["CHARACTER_LENGTH"] = charLength
	r.scalars["CHAR_LENGTH"] = charLength
	r.scalars["POW"] = powFunc
	r.scalars["EXTRACT"] = extractFunc
	r.scalars["DATE_FORMAT"] = func(args []types.Variant) (types.Variant, error) {
		return formatTemporal(args, "2006-01-02")
	}
	r.scalars["TIME_FORMAT"] = func(args []types.Variant) (types.Variant, error) {
		return formatTemporal(args, "15:04:05")
	}
	r.scalars["TIMESTAMP_FORMAT"] = func(args []types.Variant) (types.Variant, error) {
		return formatTemporal(args, "2006-01-02T15:04:05")
	}
	r.scalars["DATE_TRUNC"] = dateTruncFunc
}

func stringUnary(args []types.Variant, f func(string) string) (types.Variant, error) {
	if len(args) != 1 {
		return types.Variant{}, fmt.Errorf("expects exactly one argument")
	}
	if args[0].IsNull() {
		return types.NewNull(types.String), nil
	}
	s, err := args[0].AsString()
	if err != nil {
		return types.Variant{}, err
	}
	return types.NewString(f(s)), nil
}

func charLength(args []types.Variant) (types.Variant, error) {
	if len(args) != 1 {
		return types.Variant{}, fmt.Errorf("expects exactly one argument")
	}
	if args[0].IsNull() {
		return types.NewNull(types.Int), nil
	}
	s, err := args[0].AsString()
	if err != nil {
		return types.Variant{}, err
	}
	return types.NewInt(int64(len([]rune(s)))), nil
}

func powFunc(args []types.Variant) (types.Variant, error) {
	if len(args) != 2 {
		return types.Variant{}, fmt.Errorf("expects exactly two arguments")
	}
	base, err := asFloat(args[0])
	if err != nil {
		return types.Variant{}, err
	}
	exp, err := asFloat(args[1])
	if err != nil {
		return types.Variant{}, err
	}
	result := 1.0
	neg := exp < 0
	n := int(exp)
	if n < 0 {
		n = -n
	}
	for i := 0; i < n; i++ {
		result *= base
	}
	if neg {
		result = 1 / result
	}
	return types.NewReal(result), nil
}

func asFloat(v types.Variant) (float64, error) {
	switch v.Type() {
	case types.Int:
		i, err := v.AsInt()
		return float64(i), err
	case types.Real:
		return v.AsReal()
	default:
		return 0, fmt.Errorf("not a numeric type")
	}
}

func extractFunc(args []types.Variant) (types.Variant, error) {
	if len(args) != 2 {
		return types.Variant{}, fmt.Errorf("expects exactly two arguments")
	}
	field, err := args[0].AsString()
	if err != nil {
		return types.Variant{}, err
	}
	t, err := asTime(args[1])
	if err != nil {
		return types.Variant{}, err
	}
	switch strings.ToUpper(field) {
	case "YEAR":
		return types.NewInt(int64(t.Year())), nil
	case "MONTH":
		return types.NewInt(int64(t.Month())), nil
	case "DAY":
		return types.NewInt(int64(t.Day())), nil
	case "HOUR":
		return types.NewInt(int64(t.Hour())), nil
	case "MINUTE":
		return types.NewInt(int64(t.Minute())), nil
	case "SECOND":
		return types.NewInt(int64(t.Second())), nil
	default:
		return types.Variant{}, fmt.Errorf("unknown extract field %q", field)
	}
}

func asTime(v types.Variant) (time.Time, error) {
	switch v.Type() {
	case types.Date:
		return v.AsDate()
	case types.Time:
		return v.AsTime()
	case types.Timestamp:
		return v.AsTimestamp()
	default:
		return time.Time{}, fmt.Errorf("not a date/time type")
	}
}

func formatTemporal(args []types.Variant, defaultLayout string) (types.Variant, error) {
	if len(args) != 2 {
		return types.Variant{}, fmt.Errorf("expects exactly two arguments")
	}
	t, err := asTime(args[0])
	if err != nil {
		return types.Variant{}, err
	}
	layout, err := args[1].AsString()
	if err != nil {
		return types.Variant{}, err
	}
	return types.NewString(t.Format(goLayout(layout, defaultLayout))), nil
}

// goLayout translates the handful of strftime-style directives the
// format functions accept into a Go reference-time layout; an empty or
// unrecognized pattern falls back to the function's natural layout.
func goLayout(pattern, fallback string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	if pattern == "" {
		return fallback
	}
	return replacer.Replace(pattern)
}

func dateTruncFunc(args []types.Variant) (types.Variant, error) {
	if len(args) != 2 {
		return types.Variant{}, fmt.Errorf("expects exactly two arguments")
	}
	field, err := args[0].AsString()
	if err != nil {
		return types.Variant{}, err
	}
	t, err := asTime(args[1])
	if err != nil {
		return types.Variant{}, err
	}
	switch strings.ToUpper(field) {
	case "YEAR":
		return types.NewDate(time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())), nil
	case "MONTH":
		return types.NewDate(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())), nil
	case "DAY":
		return types.NewDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())), nil
	default:
		return types.Variant{}, fmt.Errorf("unknown truncation field %q", field)
	}
}
