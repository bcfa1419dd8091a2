package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/service/ctl"
	"github.com/oshokin/reminder/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// address overrides the daemon address.
	address string
	// noColor disables colored output.
	noColor bool

	// rootCmd represents the base command for controlling the daemon.
	rootCmd = &cobra.Command{
		Use:   "reminderctl",
		Short: "Schedule, list and stop reminder alarms.",
		Long: `Controls the reminder daemon.

Alarms are scheduled with a time and an optional title and body, listed,
cancelled and, while one is sounding, stopped. The daemon address is read from
the configuration file unless --address is given.`,
		SilenceUsage: true,
	}
)

// Execute runs the reminderctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", "", "daemon address, overrides config")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		scheduleCmd(),
		cancelCmd(),
		cancelAllCmd(),
		listCmd(),
		stopCmd(),
		statusCmd(),
		permissionCmd(),
		testCmd(),
		toneCmd(),
		exportCmd(),
		watchCmd(),
		fireCmd(),
		bootCompletedCmd(),
		configCmd(),
	)
}

// options returns the connection options from the persistent flags.
func options() *ctl.Options {
	return &ctl.Options{
		ConfigPath: cfgPath,
		Address:    address,
	}
}

// printer writes to the command output.
func printer(cmd *cobra.Command) *ctl.Printer {
	return ctl.NewPrinter(cmd.OutOrStdout(), noColor)
}

// withSession runs fn with a connected daemon session and a signal-aware context.
func withSession(fn func(ctx context.Context, s *ctl.Session) error) error {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	session, err := ctl.Open(ctx, options())
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = session.Close()
	}()

	return fn(ctx, session)
}
