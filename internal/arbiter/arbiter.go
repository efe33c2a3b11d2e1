// Package arbiter decides which of several concurrently launched keywarden
// instances gets to run. It orchestrates sibling scanning, classification,
// best-effort hand-off to an existing instance, and the proceed, defer, or
// block decision.
//
// Arbitration is best-effort by design: there is no atomic cross-process
// claim primitive here, so two instances launched within the same instant
// can in principle both proceed, racing to publish their channel address
// with last-write-wins. The scan, classification, and decision run
// synchronously on the calling goroutine before the notification channel
// goes live.
package arbiter

import (
	"context"
	"fmt"

	"github.com/keywarden/keywarden/internal/event"
	"github.com/keywarden/keywarden/internal/identity"
	"github.com/keywarden/keywarden/internal/logging"
	"github.com/keywarden/keywarden/internal/notify"
	"github.com/keywarden/keywarden/internal/procscan"
)

// Classifier produces the sibling classification for the current identity.
type Classifier interface {
	Classify(current identity.Process) (procscan.SiblingRef, error)
}

// Sender transmits a message to a sibling's channel, best-effort.
type Sender interface {
	Send(ref procscan.SiblingRef, kind uint32, payload string)
}

// Publisher records this instance's channel address in the handle registry.
type Publisher interface {
	Set(ownerUID, addr string) error
}

// Channel is the instance's own notification endpoint, already bound.
type Channel interface {
	Addr() string
	Serve()
}

// Subsystem is the main subsystem handed control on proceed.
type Subsystem interface {
	Import(path string) error
	Export(path string) error
	Run(ctx context.Context) error
}

// Deps bundles the collaborators of an Arbitrator.
type Deps struct {
	Scanner   Classifier
	Sender    Sender
	Publisher Publisher
	Channel   Channel

	// OpenSubsystem initializes the main subsystem's storage. Called only
	// when the instance proceeds (or runs a one-shot export); deferring and
	// blocked instances never touch storage.
	OpenSubsystem func() (Subsystem, error)

	// Identify captures the caller's identity. Defaults to identity.Current.
	Identify func() (identity.Process, error)

	// Bus, when non-nil, carries the ChannelPublishedEvent after a
	// successful publish.
	Bus *event.Bus

	Logger *logging.Logger
}

// Arbitrator runs the arbitration state machine once per process invocation.
type Arbitrator struct {
	opts   Options
	deps   Deps
	logger *logging.Logger
}

// New creates an Arbitrator.
func New(opts Options, deps Deps) *Arbitrator {
	if deps.Identify == nil {
		deps.Identify = identity.Current
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Arbitrator{
		opts:   opts,
		deps:   deps,
		logger: logger.WithComponent("arbiter"),
	}
}

// Run executes Scanning and transitions to exactly one of Deferring,
// Blocking, or Proceeding. On Proceeding it blocks inside the subsystem's
// run loop until the context is canceled; on every other path it returns
// promptly with the terminal outcome.
func (a *Arbitrator) Run(ctx context.Context) Outcome {
	a.logger.Debug("state entered", "state", StateScanning.String())

	current, haveIdentity := a.identify()
	ref := a.scan(current, haveIdentity)

	switch ref.Classification {
	case procscan.ClassOwnedHereSameContext:
		return a.handOff(ref)
	case procscan.ClassOwnedHereOtherContext, procscan.ClassForeignOccupant:
		return a.block(ref)
	default:
		return a.proceed(ctx, current, haveIdentity)
	}
}

// identify captures the caller's identity. On failure the instance behaves
// as the sole instance rather than refusing to start.
func (a *Arbitrator) identify() (identity.Process, bool) {
	current, err := a.deps.Identify()
	if err != nil {
		a.logger.Warn("identity capture failed, assuming sole instance", "error", err)
		return identity.Process{}, false
	}
	return current, true
}

// scan classifies the environment. Enumeration failures likewise degrade to
// no-sibling.
func (a *Arbitrator) scan(current identity.Process, haveIdentity bool) procscan.SiblingRef {
	if !haveIdentity {
		return procscan.SiblingRef{Classification: procscan.ClassNone}
	}

	ref, err := a.deps.Scanner.Classify(current)
	if err != nil {
		a.logger.Warn("sibling scan failed, assuming sole instance", "error", err)
		return procscan.SiblingRef{Classification: procscan.ClassNone}
	}
	return ref
}

// handOff forwards pending work to the same-context sibling and exits. Both
// sends are fire-and-forget; a sibling that never becomes ready simply does
// not receive the hand-off.
func (a *Arbitrator) handOff(ref procscan.SiblingRef) Outcome {
	a.logger.Info("state entered", "state", StateDeferring.String(), "sibling", ref.Sibling.String())

	if a.opts.ImportPath != "" {
		a.deps.Sender.Send(ref, notify.KindImportRequest, a.opts.ImportPath)
	}
	a.deps.Sender.Send(ref, notify.KindForegroundRequest, "")

	a.logger.Info("deferring to running instance", "sibling_pid", ref.Sibling.PID)
	return Outcome{Decision: DecisionDefer, ExitCode: 0}
}

// block produces the user-visible diagnostic for a sibling running in a
// different context and exits.
func (a *Arbitrator) block(ref procscan.SiblingRef) Outcome {
	a.logger.Info("state entered", "state", StateBlocking.String(), "sibling", ref.Sibling.String())

	var diag string
	switch ref.Classification {
	case procscan.ClassOwnedHereOtherContext:
		diag = "keywarden is already running in another session for this user account"
	default:
		diag = "keywarden is already running in this session under a different user account"
	}

	return Outcome{Decision: DecisionBlock, ExitCode: 0, Diagnostic: diag}
}

// proceed initializes storage, then either runs the one-shot export or
// publishes the channel address and hands control to the run loop.
func (a *Arbitrator) proceed(ctx context.Context, current identity.Process, haveIdentity bool) Outcome {
	a.logger.Info("state entered", "state", StateProceeding.String())

	sub, err := a.deps.OpenSubsystem()
	if err != nil {
		a.logger.Error("storage initialization failed", "error", err)
		return Outcome{
			Decision:   DecisionProceed,
			ExitCode:   1,
			Diagnostic: fmt.Sprintf("cannot open vault storage: %v", err),
		}
	}

	if a.opts.ExportPath != "" {
		// One-shot batch mode: no channel is published, no import is
		// forwarded anywhere, and the process exits when the export ends.
		if err := sub.Export(a.opts.ExportPath); err != nil {
			a.logger.Error("export failed", "path", a.opts.ExportPath, "error", err)
			return Outcome{
				Decision:   DecisionExport,
				ExitCode:   0,
				Diagnostic: fmt.Sprintf("export failed: %v", err),
			}
		}
		return Outcome{Decision: DecisionExport, ExitCode: 0}
	}

	if haveIdentity {
		if err := a.deps.Publisher.Set(current.OwnerUID, a.deps.Channel.Addr()); err != nil {
			// A failed publish leaves rivals unable to find this instance,
			// but the vault itself is unaffected; keep running.
			a.logger.Warn("failed to publish channel address", "error", err)
		} else {
			a.logger.Info("channel address published",
				"owner_uid", current.OwnerUID,
				"addr", a.deps.Channel.Addr(),
			)
			if a.deps.Bus != nil {
				a.deps.Bus.Publish(event.NewChannelPublishedEvent(current.OwnerUID, a.deps.Channel.Addr()))
			}
		}
	}

	a.deps.Channel.Serve()

	// A locally supplied import runs through the same entry point a
	// forwarded request would reach.
	if a.opts.ImportPath != "" {
		if err := sub.Import(a.opts.ImportPath); err != nil {
			a.logger.Error("startup import failed", "path", a.opts.ImportPath, "error", err)
		}
	}

	if err := sub.Run(ctx); err != nil {
		a.logger.Error("run loop failed", "error", err)
		return Outcome{Decision: DecisionProceed, ExitCode: 1, Diagnostic: err.Error()}
	}
	return Outcome{Decision: DecisionProceed, ExitCode: 0}
}
