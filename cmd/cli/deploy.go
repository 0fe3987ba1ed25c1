package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/deploy"
)

var (
	deployGitTag string
	deployEnv    string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build and publish the package graph to npm",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		runner := commands.ExecRunner{}
		d := deploy.New(cfg, commands.NewYarn(runner), runner)
		return d.Run(cmd.Context(), deployGitTag, deployEnv)
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployGitTag, "git-tag", "", "Release tag to publish (vX.Y.Z)")
	if err := deployCmd.MarkFlagRequired("git-tag"); err != nil {
		log.Error().Err(err).Msg("Failed to mark git-tag flag as required")
	}
	deployCmd.Flags().StringVar(&deployEnv, "env", "prod", "Project configuration name for the builds")
}
