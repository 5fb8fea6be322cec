package csvsqldb

import "time"

// Stats records the phase timings and outcome of one executed statement:
// "start/end" timestamp pairs for parsing, validation, planning and
// execution.
type Stats struct {
	QueryID string
	Query   string

	StartParsing, EndParsing       time.Time
	StartValidation, EndValidation time.Time
	StartPlanning, EndPlanning     time.Time
	StartExecution, EndExecution   time.Time

	RowCount int64
	Err      error
}

// ParsingDuration is the time spent lexing and building the AST.
func (s Stats) ParsingDuration() time.Duration { return s.EndParsing.Sub(s.StartParsing) }

// ValidationDuration is the time spent in the symbol table/validator.
func (s Stats) ValidationDuration() time.Duration { return s.EndValidation.Sub(s.StartValidation) }

// PlanningDuration is the time spent building the physical operator tree.
func (s Stats) PlanningDuration() time.Duration { return s.EndPlanning.Sub(s.StartPlanning) }

// ExecutionDuration is the time spent pulling rows through the plan.
func (s Stats) ExecutionDuration() time.Duration { return s.EndExecution.Sub(s.StartExecution) }

// TotalDuration spans the first parse timestamp to the last execution one.
func (s Stats) TotalDuration() time.Duration { return s.EndExecution.Sub(s.StartParsing) }
