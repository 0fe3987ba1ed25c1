package cli

import (
	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/internal/check"
	"github.com/driftlabs/webcheck/internal/commands"
)

var compatCmd = &cobra.Command{
	Use:   "compat",
	Short: "Run the backward-compatibility suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		yarn := commands.NewYarn(commands.ExecRunner{})
		return check.NewCompatTests(yarn).Run(cmd.Context())
	},
}
