package function

import "github.com/csvsqldb/csvsqldb/sql/types"

func (r *Registry) registerAggregates() {
	r.aggregates["SUM"] = func() Aggregate { return &sumAggregate{} }
	r.aggregates["COUNT"] = func() Aggregate { return &countAggregate{} }
	r.aggregates["AVG"] = func() Aggregate { return &avgAggregate{} }
	r.aggregates["MIN"] = func() Aggregate { return &minMaxAggregate{min: true} }
	r.aggregates["MAX"] = func() Aggregate { return &minMaxAggregate{min: false} }
	r.aggregates["ARBITRARY"] = func() Aggregate { return &arbitraryAggregate{} }
}

type sumAggregate struct {
	value types.Variant
	set   bool
}

func (a *sumAggregate) Step(args []types.Variant) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	if !a.set {
		a.value = args[0]
		a.set = true
		return nil
	}
	return a.value.AddAssign(args[0])
}

func (a *sumAggregate) Finalize() types.Variant {
	if !a.set {
		return types.NewNull(types.Real)
	}
	return a.value
}

type countAggregate struct {
	count int64
}

func (a *countAggregate) Step(args []types.Variant) error {
	if len(args) == 0 {
		a.count++
		return nil
	}
	if !args[0].IsNull() {
		a.count++
	}
	return nil
}

func (a *countAggregate) Finalize() types.Variant { return types.NewInt(a.count) }

type avgAggregate struct {
	sum   types.Variant
	set   bool
	count int64
}

func (a *avgAggregate) Step(args []types.Variant) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	if !a.set {
		a.sum = args[0]
		a.set = true
	} else if err := a.sum.AddAssign(args[0]); err != nil {
		return err
	}
	a.count++
	return nil
}

func (a *avgAggregate) Finalize() types.Variant {
	if !a.set || a.count == 0 {
		return types.NewNull(types.Real)
	}
	result, err := a.sum.Cast(types.Real)
	if err != nil {
		return types.NewNull(types.Real)
	}
	_ = result.DivAssign(types.NewInt(a.count))
	return result
}

type minMaxAggregate struct {
	value types.Variant
	set   bool
	min   bool
}

func (a *minMaxAggregate) Step(args []types.Variant) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	if !a.set {
		a.value = args[0]
		a.set = true
		return nil
	}
	less, err := args[0].Less(a.value)
	if err != nil {
		return err
	}
	if a.min && less {
		a.value = args[0]
	} else if !a.min && !less {
		greater, err := a.value.Less(args[0])
		if err != nil {
			return err
		}
		if greater {
			a.value = args[0]
		}
	}
	return nil
}

func (a *minMaxAggregate) Finalize() types.Variant {
	if !a.set {
		return types.NewNull(types.None)
	}
	return a.value
}

type arbitraryAggregate struct {
	value types.Variant
	set   bool
}

func (a *arbitraryAggregate) Step(args []types.Variant) error {
	if a.set || len(args) == 0 {
		return nil
	}
	a.value = args[0]
	a.set = true
	return nil
}

func (a *arbitraryAggregate) Finalize() types.Variant {
	if !a.set {
		return types.NewNull(types.None)
	}
	return a.value
}
