package cli

import (
	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/remote/agent"
)

var agentListen string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the remote command agent",
	Long:  `Runs the WebSocket agent that executes commands dispatched by the check runner on remote browser hosts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if agentListen != "" {
			cfg.Agent.ListenAddr = agentListen
		}

		return agent.NewServer(cfg.Agent).ListenAndServe()
	},
}

func init() {
	agentCmd.Flags().StringVar(&agentListen, "listen", "", "Listen address (overrides config)")
}
