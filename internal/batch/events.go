package batch

// EventKind enumerates the per-file and per-run transitions reported to the
// observer. The stream is ordered: events for a file are contiguous and files
// appear in discovery order.
type EventKind int

const (
	// EventFileStarted fires when a file's processing begins.
	EventFileStarted EventKind = iota
	// EventFileSucceeded fires after the JSON artifact is written; Report
	// tells whether a PDF was produced as well.
	EventFileSucceeded
	// EventFileSkipped fires when a file terminates without artifacts.
	EventFileSkipped
	// EventRunCompleted fires once, after the last file.
	EventRunCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventFileStarted:
		return "file-started"
	case EventFileSucceeded:
		return "file-succeeded"
	case EventFileSkipped:
		return "file-skipped"
	case EventRunCompleted:
		return "run-completed"
	default:
		return "unknown"
	}
}

// Event is one progress notification from a run. Job is set for per-file
// events and zero for run-completed.
type Event struct {
	Kind EventKind
	Job  FileJob

	// JSONPath and ReportPath are set on success, ReportPath only when a
	// report was produced.
	JSONPath   string
	ReportPath string
	Report     bool

	// Err carries the failure behind a skip, or a non-fatal report rendering
	// failure on an otherwise successful file.
	Err error

	// Summary is set on run-completed.
	Summary Summary
}

// Observer consumes run progress events. Implementations must not block for
// long: the pipeline calls them inline between file transitions.
type Observer func(Event)

// Summary aggregates per-file outcomes for one run.
type Summary struct {
	Files     int
	Succeeded int
	Reported  int
	Skipped   int
}
