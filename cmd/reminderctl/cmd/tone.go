package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/fsutil"
	"github.com/oshokin/reminder/internal/platform/audio"
	"github.com/oshokin/reminder/internal/service/ctl"
)

// defaultPreview is how long a tone preview plays.
const defaultPreview = 5 * time.Second

func toneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Preview or save the alarm tone.",
	}

	var duration time.Duration

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Play the alarm tone on the daemon.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, s *ctl.Session) error {
				return s.Client.PreviewTone(ctx, duration)
			})
		},
	}
	preview.Flags().DurationVarP(&duration, "duration", "d", defaultPreview, "how long to play")

	save := &cobra.Command{
		Use:   "save FILE",
		Short: "Write the configured alarm tone as a WAV file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctl.LoadConfig(options())
			if err != nil {
				return err
			}

			tone, err := audio.LoadTone(cfg.Playback.ToneFile)
			if err != nil {
				return err
			}

			path := filepath.Clean(args[0])
			if err = fsutil.Replace(path, audio.EncodeWAV(tone), config.DefaultFilePermissions); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", path, tone.Duration())

			return nil
		},
	}

	cmd.AddCommand(preview, save)

	return cmd
}
