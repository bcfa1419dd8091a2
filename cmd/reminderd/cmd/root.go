package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/service/daemon"
	"github.com/oshokin/reminder/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// httpAddress enables the JSON API on this address.
	httpAddress string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the reminder daemon.
	rootCmd = &cobra.Command{
		Use:   "reminderd [listen-address]",
		Short: "Run the reminder daemon that schedules and sounds alarms.",
		Long: `Starts the reminder daemon.

The daemon persists scheduled alarms, registers them with the OS timer facility
(in-process timers or systemd user timers), sounds the alarm tone when a timer
fires and restores the schedule once per boot.

It is controlled over gRPC by reminderctl. The listen address can be provided as
argument to override config (e.g., 127.0.0.1:50061). An optional JSON HTTP API
is served when --http or http_addr is set.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
				AllowMultiple: allowMultiple,
			})
		},
	}
)

// Execute runs the reminderd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&httpAddress, "http", "", "serve the JSON HTTP API on this address")

	// Hidden flag to run next to another daemon, used by tests.
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
