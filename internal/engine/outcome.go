package engine

// Outcome classifies what happened to a single snapshot record.
type Outcome int

const (
	// OutcomeCreated means the object was created in the target.
	OutcomeCreated Outcome = iota
	// OutcomeExists means an equivalent object was already present.
	OutcomeExists
	// OutcomeFiltered means the record was intentionally skipped: it was
	// excluded, or a required reference could not be resolved.
	OutcomeFiltered
	// OutcomeFailed means the target rejected the payload or the
	// transport failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeExists:
		return "exists"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is a per-record progress notification. The engine emits one event
// per snapshot record; the CLI renders them.
type Event struct {
	Type    string
	Key     string
	Outcome Outcome
	Message string
}

// EventFunc receives progress events during a run.
type EventFunc func(Event)
