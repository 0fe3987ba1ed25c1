package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/pkg/logger"
)

var (
	logMode    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "webcheck",
	Short: "Webcheck CI runner",
	Long:  `CI check runner for the web SDK: build, lint, node tests against MongoDB and browser test passes per platform`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch logMode {
		case "debug", "pretty", "info", "prod", "test":
			logger.InitWithMode(logger.Mode(logMode))
		default:
			logger.InitWithMode(logger.ModePretty)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the config file")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(compatCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(reportCmd)
}
