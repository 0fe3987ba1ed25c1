package cleaner

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/driftlabs/webcheck/pkg/logger"
)

const edgePackage = "Microsoft.MicrosoftEdge_8wekyb3d8bbwe"

// ClearEdgeState kills Edge and its COM helper, then deletes the cache
// and session directories under the Edge app package.
func (c *Cleaner) ClearEdgeState() {
	log := logger.WithComponent("cleaner")

	c.kill("MicrosoftEdge.exe")
	c.kill("dllhost.exe")

	localAppData := os.Getenv("LOCALAPPDATA")
	edgePath := filepath.Join(localAppData, "Packages", edgePackage)
	acPath := filepath.Join(edgePath, "AC")
	userDefaultPath := filepath.Join(acPath, "MicrosoftEdge", "User", "Default")

	targets, err := doublestar.FilepathGlob(filepath.Join(acPath, "#!*"))
	if err != nil {
		log.Warn().Err(err).Str("path", acPath).Msg("Cache glob failed")
	}
	targets = append(targets,
		filepath.Join(edgePath, "AppData"),
		filepath.Join(userDefaultPath, "Recovery", "Active"),
		filepath.Join(userDefaultPath, "DataStore"),
	)

	for _, target := range targets {
		c.removeTree("Edge", target)
	}
}
