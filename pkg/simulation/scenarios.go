package simulation

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// RunScenarios runs one independent simulation per configuration in
// parallel. Results keep the order of cfgs. The first failure cancels the
// runs that have not started yet.
func RunScenarios(ctx context.Context, logger *slog.Logger, cfgs ...*config.Config) ([]*Simulator, error) {
	sims := make([]*Simulator, len(cfgs))
	for i, cfg := range cfgs {
		sim, err := NewSimulator(cfg, logger)
		if err != nil {
			return nil, err
		}
		sims[i] = sim
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, sim := range sims {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return sim.Run()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sims, nil
}
