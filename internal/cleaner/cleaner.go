// Package cleaner removes browser state ahead of a test pass so every
// run starts from a blank profile. All deletions are best-effort: a
// failure is logged with the offending path and never aborts the pass.
package cleaner

import (
	"os"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/procutil"
	"github.com/driftlabs/webcheck/pkg/logger"
)

type Cleaner struct {
	runner commands.CommandRunner
	cfg    config.CleanerConfig

	// swapped out in tests
	removeAll func(string) error
	kill      func(name string)
	pids      func(name string) []int32
}

func New(runner commands.CommandRunner, cfg config.CleanerConfig) *Cleaner {
	return &Cleaner{
		runner:    runner,
		cfg:       cfg,
		removeAll: os.RemoveAll,
		kill:      procutil.KillByName,
		pids:      procutil.PidsByName,
	}
}

func (c *Cleaner) removeTree(browser, path string) {
	if err := c.removeAll(path); err != nil {
		log := logger.WithComponent("cleaner")
		log.Warn().Err(err).Str("browser", browser).Str("path", path).
			Msg("Unable to delete state path")
	}
}
