package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/reminder/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings.",
		Long: `Writes the default settings, with REMINDER_* environment overrides applied,
to the file given by --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Init(cfgPath, force); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", cfgPath)

			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing settings file")
	cmd.AddCommand(initCmd)

	return cmd
}
