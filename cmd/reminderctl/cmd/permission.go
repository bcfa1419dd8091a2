package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/reminder/internal/platform/notify"
	"github.com/oshokin/reminder/internal/platform/permission"
	"github.com/oshokin/reminder/internal/service/ctl"
)

func permissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Inspect or change the exact alarm permission.",
		Long: `Exact alarms fire at the requested second and may wake the machine.
Without the permission alarms are registered inexactly and fire within the
configured inexact window.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether exact alarms are allowed.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSession(func(ctx context.Context, s *ctl.Session) error {
					exact, err := s.Client.CanScheduleExact(ctx)
					if err != nil {
						return err
					}

					printer(cmd).Permission(exact)

					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "request",
			Short: "Ask the user to allow exact alarms.",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withSession(func(ctx context.Context, s *ctl.Session) error {
					return s.Client.RequestPermission(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "grant",
			Short: "Allow exact alarms.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				gate, err := localGate()
				if err != nil {
					return err
				}

				if err = gate.Grant(); err != nil {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Exact alarms allowed; alarms scheduled from now on are exact.")

				return nil
			},
		},
		&cobra.Command{
			Use:   "revoke",
			Short: "Forbid exact alarms.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				gate, err := localGate()
				if err != nil {
					return err
				}

				if err = gate.Revoke(); err != nil {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Exact alarms forbidden.")

				return nil
			},
		},
	)

	return cmd
}

// localGate opens the permission marker of the configured data directory.
func localGate() (*permission.Gate, error) {
	cfg, err := ctl.LoadConfig(options())
	if err != nil {
		return nil, err
	}

	return permission.NewGate(cfg.PermissionMarkerPath(), notify.Noop{}), nil
}
