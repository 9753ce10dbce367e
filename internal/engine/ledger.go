package engine

// ReportErrorLimit bounds how many failures the final report surfaces in
// detail. All failures are counted regardless.
const ReportErrorLimit = 10

// ErrorRecord captures one failed creation with enough detail to diagnose
// without re-running.
type ErrorRecord struct {
	Type    string
	Key     string
	Message string
	Payload map[string]any
}

// Ledger accumulates per-record outcomes across a run. Counters only ever
// increase; the final report is read straight off them, never recomputed.
type Ledger struct {
	runID   string
	created int
	skipped int
	failed  int
	errors  []ErrorRecord
}

// NewLedger returns an empty ledger for one migration run.
func NewLedger(runID string) *Ledger {
	return &Ledger{runID: runID}
}

// Record books one outcome. AlreadyExists and Filtered both count as
// skipped; they stay distinguishable through the event stream.
func (l *Ledger) Record(typ, key string, payload map[string]any, outcome Outcome, message string) {
	switch outcome {
	case OutcomeCreated:
		l.created++
	case OutcomeExists, OutcomeFiltered:
		l.skipped++
	case OutcomeFailed:
		l.failed++
		l.errors = append(l.errors, ErrorRecord{
			Type:    typ,
			Key:     key,
			Message: message,
			Payload: payload,
		})
	}
}

// Report is the end-of-run summary.
type Report struct {
	RunID   string
	Created int
	Skipped int
	Failed  int
	// Errors holds every failure; renderers surface at most
	// ReportErrorLimit of them.
	Errors []ErrorRecord
}

// Summarize returns the counters accumulated so far. It is safe to call
// from both the normal and the abnormal termination path.
func (l *Ledger) Summarize() *Report {
	return &Report{
		RunID:   l.runID,
		Created: l.created,
		Skipped: l.skipped,
		Failed:  l.failed,
		Errors:  append([]ErrorRecord(nil), l.errors...),
	}
}
