package check

import (
	"context"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
)

// NodeTests runs the coverage suite against a disposable MongoDB
// container managed by the database scope.
type NodeTests struct {
	cfg  *config.Config
	yarn *commands.Yarn
	db   DatabaseScope
}

func NewNodeTests(cfg *config.Config, yarn *commands.Yarn, db DatabaseScope) *NodeTests {
	return &NodeTests{cfg: cfg, yarn: yarn, db: db}
}

func (n *NodeTests) Run(ctx context.Context, env string) error {
	return n.db.Run(ctx, func() error {
		vars := []string{
			n.cfg.Project.ConfigEnvVar + "=" + env,
			n.cfg.Project.MongoEnvVar + "=true",
		}
		return n.yarn.Run(ctx, vars, "coverage")
	})
}
