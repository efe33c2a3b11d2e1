package arbiter

// State names the phases of the arbitration state machine. Every run moves
// Scanning -> {Deferring, Blocking, Proceeding} -> Terminal; no transition
// leaves Terminal.
type State int

const (
	// StateScanning is the entry state: enumerate and classify siblings.
	StateScanning State = iota
	// StateDeferring hands pending work to the sibling and exits.
	StateDeferring
	// StateBlocking shows a diagnostic and exits.
	StateBlocking
	// StateProceeding publishes the channel and runs the vault.
	StateProceeding
	// StateTerminal ends the run; the process exits.
	StateTerminal
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateDeferring:
		return "deferring"
	case StateBlocking:
		return "blocking"
	case StateProceeding:
		return "proceeding"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Decision is the resolved fate of one invocation.
type Decision int

const (
	// DecisionProceed means this instance won arbitration and ran the vault.
	DecisionProceed Decision = iota
	// DecisionDefer means work was forwarded to a sibling and this
	// instance exits.
	DecisionDefer
	// DecisionBlock means a sibling in another context holds the slot and
	// this instance exits with a diagnostic.
	DecisionBlock
	// DecisionExport means the one-shot export ran and this instance exits.
	DecisionExport
)

// String returns the decision name used in logs.
func (d Decision) String() string {
	switch d {
	case DecisionProceed:
		return "proceed"
	case DecisionDefer:
		return "defer"
	case DecisionBlock:
		return "block"
	case DecisionExport:
		return "export"
	default:
		return "unknown"
	}
}

// Options carries the startup flags consumed by the arbitration core. It is
// constructed once at startup and passed explicitly; there is no
// package-level flag state.
type Options struct {
	// ImportPath, when set, is forwarded to a same-context sibling or
	// imported locally by the proceeding instance.
	ImportPath string

	// ExportPath, when set, switches the proceeding instance into one-shot
	// export mode: export, then exit without publishing a channel.
	ExportPath string
}

// Outcome is the terminal result of one arbitration run.
type Outcome struct {
	Decision Decision
	// ExitCode is 0 on every graceful path.
	ExitCode int
	// Diagnostic, when non-empty, is a user-facing message to display
	// before exiting.
	Diagnostic string
}
