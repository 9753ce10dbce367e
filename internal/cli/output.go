package cli

import (
	"fmt"
	"io"

	"github.com/boxhaul-io/boxhaul/internal/engine"
)

// outcomeSymbols render per-record progress lines.
var outcomeSymbols = map[engine.Outcome]string{
	engine.OutcomeCreated:  "+",
	engine.OutcomeExists:   "=",
	engine.OutcomeFiltered: "-",
	engine.OutcomeFailed:   "!",
}

// progressPrinter returns the event renderer for the run command. Quiet
// mode still surfaces failures.
func progressPrinter(quiet bool) engine.EventFunc {
	return func(ev engine.Event) {
		if quiet && ev.Outcome != engine.OutcomeFailed {
			return
		}
		line := fmt.Sprintf("%s %s %s", outcomeSymbols[ev.Outcome], ev.Type, ev.Key)
		if ev.Message != "" {
			line += " (" + ev.Message + ")"
		}
		fmt.Println(line)
	}
}

// renderReport writes the end-of-run summary. At most ReportErrorLimit
// failures are detailed; the rest are only counted.
func renderReport(w io.Writer, report *engine.Report) {
	fmt.Fprintf(w, "Migration %s\n", report.RunID)
	fmt.Fprintf(w, "  Created: %d\n", report.Created)
	fmt.Fprintf(w, "  Skipped: %d\n", report.Skipped)
	fmt.Fprintf(w, "  Failed:  %d\n", report.Failed)

	if len(report.Errors) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Errors:")
	shown := report.Errors
	if len(shown) > engine.ReportErrorLimit {
		shown = shown[:engine.ReportErrorLimit]
	}
	for _, e := range shown {
		fmt.Fprintf(w, "  %s %s: %s\n", e.Type, e.Key, e.Message)
	}
	if rest := len(report.Errors) - len(shown); rest > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", rest)
	}
}
