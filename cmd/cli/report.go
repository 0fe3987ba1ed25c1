package cli

import (
	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reporting utilities",
}

var reportSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Build the browser bundle and report its size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		yarn := commands.NewYarn(commands.ExecRunner{})
		reporter, err := reporting.NewReporter(cfg.Reporting, yarn)
		if err != nil {
			return err
		}
		return reporter.SendSizeMetric(cmd.Context())
	},
}

func init() {
	reportCmd.AddCommand(reportSizeCmd)
}
