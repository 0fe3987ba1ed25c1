package check

import (
	"context"
	"fmt"

	"github.com/driftlabs/webcheck/internal/commands"
)

// lint targets, in order; the first failure aborts the run.
var lintTargets = []string{"lint:js", "lint:flow"}

type Linters struct {
	yarn *commands.Yarn
}

func NewLinters(yarn *commands.Yarn) *Linters {
	return &Linters{yarn: yarn}
}

func (l *Linters) Run(ctx context.Context) error {
	for _, target := range lintTargets {
		if err := l.yarn.Run(ctx, nil, target); err != nil {
			return fmt.Errorf("%s failed: %w", target, err)
		}
	}
	return nil
}
