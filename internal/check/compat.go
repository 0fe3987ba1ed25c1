package check

import (
	"context"
	"fmt"

	"github.com/driftlabs/webcheck/internal/commands"
)

// compatDir holds the suite that exercises the published packages
// against data written by earlier releases.
const compatDir = "ci/compat"

// CompatTests runs the backward-compatibility suite, which lives in its
// own package with its own dependencies.
type CompatTests struct {
	yarn *commands.Yarn
}

func NewCompatTests(yarn *commands.Yarn) *CompatTests {
	return &CompatTests{yarn: yarn}
}

func (c *CompatTests) Run(ctx context.Context) error {
	if err := c.yarn.InstallDeps(ctx); err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}
	if err := c.yarn.InstallDepsIn(ctx, compatDir); err != nil {
		return fmt.Errorf("compat dependency install failed: %w", err)
	}
	if err := c.yarn.RunIn(ctx, compatDir, nil, "proof"); err != nil {
		return fmt.Errorf("compat suite failed: %w", err)
	}
	return nil
}
