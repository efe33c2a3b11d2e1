package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/keywarden/keywarden/internal/arbiter"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/dialog"
	kerrors "github.com/keywarden/keywarden/internal/errors"
	"github.com/keywarden/keywarden/internal/event"
	"github.com/keywarden/keywarden/internal/logging"
	"github.com/keywarden/keywarden/internal/notify"
	"github.com/keywarden/keywarden/internal/procscan"
	"github.com/keywarden/keywarden/internal/registry"
	"github.com/keywarden/keywarden/internal/vault"
)

const dirMode = 0o700

func runRoot(cmd *cobra.Command, args []string) error {
	importPath, _ := cmd.Flags().GetString("import-path")
	exportPath, _ := cmd.Flags().GetString("export-path")
	fatalMessage, _ := cmd.Flags().GetString("fatal-message")

	// A relaunch asked us to display a startup failure on its behalf.
	// Nothing else runs in this mode.
	if fatalMessage != "" {
		dialog.Show("keywarden", fatalMessage)
		return nil
	}

	if importPath != "" && exportPath != "" {
		return fmt.Errorf("--import-path and --export-path are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return kerrors.Wrap(err, "invalid configuration")
	}

	runID := uuid.NewString()

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(config.ConfigDir(), cfg.Logging.Level)
		if err != nil {
			return kerrors.Wrap(err, "initialize logging")
		}
	}
	defer func() { _ = logger.Close() }()
	logger = logger.WithRun(runID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bind the channel before arbitration so its address is ready to
	// publish the moment this instance wins. The socket name embeds the run
	// ID, so rival instances never collide on the path.
	runtimeDir := cfg.Paths.ResolveRuntimeDir()
	if err := os.MkdirAll(runtimeDir, dirMode); err != nil {
		return kerrors.Wrapf(err, "create runtime directory %s", runtimeDir)
	}

	channel := notify.NewChannel(logger)
	socketPath := filepath.Join(runtimeDir, fmt.Sprintf("channel-%.8s.sock", runID))
	if err := channel.Listen(socketPath); err != nil {
		return kerrors.Wrap(err, "bind notification channel")
	}
	defer func() { _ = channel.Close() }()

	bus := event.NewBus()
	reg := registry.New(config.ConfigDir())

	// The vault exists only if this instance proceeds; the arbiter opens it
	// through the closure below before Serve starts delivering messages.
	var v *vault.Vault
	channel.Handle(notify.KindImportRequest, func(payload string) error {
		if v == nil {
			return fmt.Errorf("import request before storage is open")
		}
		if err := v.Import(payload); err != nil {
			reportError(logger, err, "forwarded import failed")
		}
		return nil
	})
	channel.Handle(notify.KindForegroundRequest, func(string) error {
		if v == nil {
			return fmt.Errorf("foreground request before storage is open")
		}
		v.Foreground()
		return nil
	})

	sender := notify.NewSender(logger)
	sender.SetReadinessWait(cfg.Notify.ReadinessWait())

	arb := arbiter.New(
		arbiter.Options{ImportPath: importPath, ExportPath: exportPath},
		arbiter.Deps{
			Scanner:   procscan.NewScanner(procscan.NewProcLister(), reg, logger),
			Sender:    sender,
			Publisher: reg,
			Channel:   channel,
			OpenSubsystem: func() (arbiter.Subsystem, error) {
				opened, err := vault.Open(cfg.Paths.ResolveVaultFile(), logger, bus)
				if err != nil {
					return nil, err
				}
				v = opened
				return opened, nil
			},
			Bus:    bus,
			Logger: logger,
		},
	)

	outcome := arb.Run(ctx)
	logger.Info("arbitration finished",
		"decision", outcome.Decision.String(),
		"exit_code", outcome.ExitCode,
	)

	if outcome.Diagnostic != "" {
		dialog.Show("keywarden", outcome.Diagnostic)
	}
	if outcome.ExitCode != 0 {
		return &ExitCodeError{Code: outcome.ExitCode}
	}
	return nil
}

// reportError records a handled failure at its classified severity and, when
// the message is safe to show, raises it in a dialog as well. Used for
// failures the running instance absorbs instead of returning, such as a
// forwarded import that could not be applied.
func reportError(logger *logging.Logger, err error, msg string) {
	switch kerrors.GetSeverity(err) {
	case kerrors.SeverityDebug:
		logger.Debug(msg, "error", err)
	case kerrors.SeverityInfo:
		logger.Info(msg, "error", err)
	case kerrors.SeverityWarning:
		logger.Warn(msg, "error", err)
	default:
		logger.Error(msg, "error", err)
	}
	if kerrors.IsUserFacing(err) {
		dialog.Show("keywarden", err.Error())
	}
}
