package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/pkg/logger"
)

// clearTracksMask selects what ClearMyTracksByProcess wipes:
// history (0x1) | cookies (0x2) | cache (0x4) | offline favorites and
// download history (0x8) | form data (0x10) | passwords (0x20) |
// phishing filter data (0x40) | recovery data (0x80) | no GUI (0x100).
const clearTracksMask = "511"

// ClearIEState kills Internet Explorer and its COM helper, deletes the
// Indexed DB directory, and asks the OS to clear tracked browsing data.
func (c *Cleaner) ClearIEState(ctx context.Context) {
	log := logger.WithComponent("cleaner")

	c.kill("iexplore.exe")
	c.kill("dllhost.exe")

	localAppData := os.Getenv("LOCALAPPDATA")
	c.removeTree("IE", filepath.Join(localAppData, "Microsoft", "Internet Explorer", "Indexed DB"))

	if err := c.runner.Run(ctx, commands.Command{
		Name: "RunDll32.exe",
		Args: []string{"InetCpl.cpl,ClearMyTracksByProcess", clearTracksMask},
	}); err != nil {
		log.Warn().Err(err).Msg("ClearMyTracksByProcess failed")
		return
	}

	// rundll32 hands the work to a child and returns early; wait for the
	// helper to disappear before a new browser session starts.
	deadline := time.Now().Add(c.cfg.ClearTracksTimeout)
	for time.Now().Before(deadline) {
		if len(c.pids("rundll32.exe")) == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ClearTracksPollInterval):
		}
	}
	log.Warn().Msg("Timed out waiting for ClearMyTracksByProcess to finish")
}
