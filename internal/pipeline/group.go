package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Pipelines is the set of feed pipelines run by one process.
type Pipelines []*Pipeline

// RunAll runs every pipeline concurrently and returns once all have exited.
func (ps Pipelines) RunAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range ps {
		g.Go(func() error {
			return p.Run(gctx)
		})
	}
	return g.Wait()
}

// Stop signals every pipeline to exit after its current cycle.
func (ps Pipelines) Stop() {
	for _, p := range ps {
		p.Stop()
	}
}

// CheckReadiness is nil once every pipeline has completed a cycle.
func (ps Pipelines) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, p := range ps {
		if err := p.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
