package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/service/ctl"
)

// errNoTime is returned when a reminder has no usable time.
var errNoTime = errors.New("reminder time is required")

func scheduleCmd() *cobra.Command {
	var id, title, body string

	cmd := &cobra.Command{
		Use:   "schedule WHEN",
		Short: "Schedule an alarm.",
		Long: `Schedules an alarm, replacing any alarm with the same id.

WHEN is a relative duration (+10m, 1h30m), a wall-clock time (07:30, the next
occurrence), a local date and time (2026-05-01 09:00) or an RFC 3339 timestamp.
An id is generated unless --id is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()

			at, err := ctl.ParseWhen(args[0], now)
			if err != nil {
				return err
			}

			record, ok := domain.NewReminder(domain.Millis(at), id).Record(title, body)
			if !ok {
				return errNoTime
			}

			return withSession(func(ctx context.Context, s *ctl.Session) error {
				resp, err := s.Client.Schedule(ctx, record)
				if err != nil {
					return err
				}

				printer(cmd).Scheduled(resp, now)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "alarm id, generated when empty")
	cmd.Flags().StringVarP(&title, "title", "t", "", "text shown when the alarm fires")
	cmd.Flags().StringVarP(&body, "body", "b", "", "text shown under the title")

	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID...",
		Short: "Cancel alarms by id.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				for _, id := range args {
					if err := s.Client.Cancel(ctx, id); err != nil {
						return err
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", id)
				}

				return nil
			})
		},
	}
}

func cancelAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				if err := s.Client.CancelAll(ctx); err != nil {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All alarms cancelled")

				return nil
			})
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List scheduled alarms.",
		Long: `Lists the persisted alarms in the order they were scheduled.

Alarms that already fired stay listed as due until the schedule is next restored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				records, err := s.Client.List(ctx)
				if err != nil {
					return err
				}

				printer(cmd).Alarms(records, time.Now())

				return nil
			})
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the alarm that is sounding.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				return s.Client.StopCurrentAlarm(ctx)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an alarm is sounding.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				resp, err := s.Client.Status(ctx)
				if err != nil {
					return err
				}

				printer(cmd).Status(resp)

				return nil
			})
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Schedule a test alarm a few seconds from now.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				resp, err := s.Client.TestAlarm(ctx)
				if err != nil {
					return err
				}

				printer(cmd).Scheduled(resp, time.Now())

				return nil
			})
		},
	}
}
