package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/export/ical"
	"github.com/oshokin/reminder/internal/fsutil"
	"github.com/oshokin/reminder/internal/platform/boot"
	"github.com/oshokin/reminder/internal/service/ctl"
	"github.com/oshokin/reminder/internal/ui/watch"
)

func fireCmd() *cobra.Command {
	var (
		id, title, body string
		wait            time.Duration
	)

	cmd := &cobra.Command{
		Use:    "fire",
		Short:  "Deliver a fired timer to the daemon.",
		Long:   "Invoked by systemd timers registered by the daemon.",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				ctx, cancel := waitContext(ctx, wait)
				defer cancel()

				return ctl.Retry(ctx, ctl.DefaultRetryInterval, func(ctx context.Context) error {
					return s.Client.Fire(ctx, id, title, body)
				})
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "alarm id")
	cmd.Flags().StringVar(&title, "title", "", "alarm title")
	cmd.Flags().StringVar(&body, "body", "", "alarm body")
	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long to keep trying while the daemon is unreachable")

	return cmd
}

func bootCompletedCmd() *cobra.Command {
	var (
		wait  time.Duration
		force bool
	)

	cmd := &cobra.Command{
		Use:   "boot-completed",
		Short: "Restore the schedule after a reboot.",
		Long: `Re-registers every future alarm with the timer facility and drops the
alarms that fired while the machine was off. It runs at most once per boot;
later calls only report the number of scheduled alarms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				if force {
					if err := boot.NewMarker(s.Config.BootMarkerPath()).Reset(); err != nil {
						return err
					}
				}

				ctx, cancel := waitContext(ctx, wait)
				defer cancel()

				var resp *api.BootCompletedResponse

				err := ctl.Retry(ctx, ctl.DefaultRetryInterval, func(ctx context.Context) error {
					var err error

					resp, err = s.Client.BootCompleted(ctx)

					return err
				})
				if err != nil {
					return err
				}

				if resp.Restored {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schedule restored, %d alarms kept\n", resp.Kept)
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schedule already restored, %d alarms scheduled\n", resp.Kept)
				}

				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long to keep trying while the daemon is unreachable")
	cmd.Flags().BoolVar(&force, "force", false, "restore even if it already ran for this boot")

	return cmd
}

// defaultWait covers a daemon that is still starting when a timer or login hook runs.
const defaultWait = 30 * time.Second

// waitContext bounds ctx by wait; zero keeps trying until interrupted.
func waitContext(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, wait)
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Export scheduled alarms as iCalendar.",
		Long:  "Writes the scheduled alarms as an .ics document to FILE, or to standard output.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				records, err := s.Client.List(ctx)
				if err != nil {
					return err
				}

				if len(args) == 0 {
					return ical.Encode(cmd.OutOrStdout(), records, time.Now())
				}

				var buf bytes.Buffer
				if err = ical.Encode(&buf, records, time.Now()); err != nil {
					return err
				}

				return fsutil.Replace(filepath.Clean(args[0]), buf.Bytes(), config.DefaultFilePermissions)
			})
		},
	}
}

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the daemon state live.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				return watch.Run(ctx, s.Client, interval)
			})
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", watch.DefaultInterval, "poll period")

	return cmd
}
