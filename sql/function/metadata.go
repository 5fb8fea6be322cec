package function

// FuncInfo describes one registered function for reflection by
// SYSTEM_FUNCTIONS: its name, declared return type, arity,
// and whether it is an aggregate.
type FuncInfo struct {
	Name       string
	ReturnType string
	ParamCount int
	Aggregate  bool
}

// funcMetadata is the declared return type and parameter count for each
// built-in; it is kept separate from the executable
// closures in function.go/aggregate.go because SYSTEM_FUNCTIONS needs
// only a quick read-only description, not a callable.
var funcMetadata = []FuncInfo{
	{Name: "CURRENT_DATE", ReturnType: "DATE", ParamCount: 0},
	{Name: "CURRENT_TIME", ReturnType: "TIME", ParamCount: 0},
	{Name: "CURRENT_TIMESTAMP", ReturnType: "TIMESTAMP", ParamCount: 0},
	{Name: "EXTRACT", ReturnType: "INT", ParamCount: 2},
	{Name: "DATE_FORMAT", ReturnType: "STRING", ParamCount: 2},
	{Name: "TIME_FORMAT", ReturnType: "STRING", ParamCount: 2},
	{Name: "TIMESTAMP_FORMAT", ReturnType: "STRING", ParamCount: 2},
	{Name: "DATE_TRUNC", ReturnType: "DATE", ParamCount: 2},
	{Name: "POW", ReturnType: "REAL", ParamCount: 2},
	{Name: "UPPER", ReturnType: "STRING", ParamCount: 1},
	{Name: "LOWER", ReturnType: "STRING", ParamCount: 1},
	{Name: "CHARACTER_LENGTH", ReturnType: "INT", ParamCount: 1},
	{Name: "CHAR_LENGTH", ReturnType: "INT", ParamCount: 1},
	{Name: "VERSION", ReturnType: "STRING", ParamCount: 0},
	{Name: "SUM", ReturnType: "REAL", ParamCount: 1, Aggregate: true},
	{Name: "COUNT", ReturnType: "INT", ParamCount: 1, Aggregate: true},
	{Name: "AVG", ReturnType: "REAL", ParamCount: 1, Aggregate: true},
	{Name: "MIN", ReturnType: "ANY", ParamCount: 1, Aggregate: true},
	{Name: "MAX", ReturnType: "ANY", ParamCount: 1, Aggregate: true},
	{Name: "ARBITRARY", ReturnType: "ANY", ParamCount: 1, Aggregate: true},
}

// Describe returns the declared metadata for every built-in function
// registered in r. Since r preloads the same fixed built-in set on every
// construction, this does not need to inspect r's internals;
// it is kept as a method-shaped free function so SYSTEM_FUNCTIONS reads
// naturally as "describe the registry".
func Describe(r *Registry) []FuncInfo {
	return funcMetadata
}
