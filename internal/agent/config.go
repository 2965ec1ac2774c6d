package agent

// Config controls workflow behavior. The zero value is a fully
// automatic agent with no review gates, no memory and no calendar
// tooling; DefaultConfig returns the recommended setup.
type Config struct {
	// HITL gates write_email, schedule_meeting and question behind
	// human review, and routes notify classifications to a review
	// checkpoint. When false the gated tools execute immediately and
	// the question tool is not offered at all.
	HITL bool

	// Memory serves prompts from the preference store and distills
	// review feedback back into it. When false the built-in defaults
	// are used and feedback is discarded.
	Memory bool

	// CalendarTools offers schedule_meeting and
	// check_calendar_availability to the generator. When false the
	// agent can only draft emails and ask questions.
	CalendarTools bool

	// MaxIterations bounds generator turns in the response agent
	// loop. A run that reaches the bound without calling done fails.
	MaxIterations int
}

// DefaultMaxIterations bounds the response loop when Config leaves it
// unset.
const DefaultMaxIterations = 10

// DefaultConfig enables review gates, preference memory and calendar
// tooling.
func DefaultConfig() Config {
	return Config{
		HITL:          true,
		Memory:        true,
		CalendarTools: true,
		MaxIterations: DefaultMaxIterations,
	}
}
