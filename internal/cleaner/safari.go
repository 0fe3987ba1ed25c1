package cleaner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/pkg/logger"
)

// ClearSafariState kills Safari and deletes its user-state directory.
func (c *Cleaner) ClearSafariState(ctx context.Context) {
	log := logger.WithComponent("cleaner")

	// killall fails when Safari is not running, which is fine.
	if err := c.runner.Run(ctx, commands.Command{Name: "killall", Args: []string{"Safari"}}); err != nil {
		log.Debug().Err(err).Msg("Safari was not running")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Cannot resolve home directory")
		return
	}
	c.removeTree("Safari", filepath.Join(home, "Library", "Safari"))
}
