package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/internal/check"
	"github.com/driftlabs/webcheck/internal/cleaner"
	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/database"
	"github.com/driftlabs/webcheck/internal/remote"
)

var (
	runnerName string
	envName    string
	nightly    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full CI check for one runner",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		runner, err := check.ParseRunner(runnerName)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		chk, err := buildCheck(cfg)
		if err != nil {
			return err
		}
		return chk.Run(cmd.Context(), runner, envName, nightly)
	},
}

func init() {
	checkCmd.Flags().StringVar(&runnerName, "runner", "", "Runner: linux, macos, windows-edge, windows-ie")
	if err := checkCmd.MarkFlagRequired("runner"); err != nil {
		log.Error().Err(err).Msg("Failed to mark runner flag as required")
	}
	checkCmd.Flags().StringVar(&envName, "env", "dev", "Project configuration name")
	checkCmd.Flags().BoolVar(&nightly, "nightly", false, "Run the browser pass ten times and report failing rounds")
}

func buildCheck(cfg *config.Config) (*check.Check, error) {
	runner := commands.ExecRunner{}
	yarn := commands.NewYarn(runner)

	mongo, err := database.NewMongoContainer(cfg.Mongo)
	if err != nil {
		return nil, err
	}

	return check.New(
		yarn,
		check.NewLinters(yarn),
		check.NewNodeTests(cfg, yarn, mongo),
		check.NewBrowserTests(
			cfg,
			yarn,
			cleaner.New(runner, cfg.Cleaner),
			remote.NewClient(cfg.Remote.EdgeAgentURL, cfg.Remote),
			remote.NewClient(cfg.Remote.IEAgentURL, cfg.Remote),
		),
	), nil
}
