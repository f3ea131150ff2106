package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkUnit is one independently-processable slice of a job (e.g. a
// GenBank division). Units run with bounded parallelism; records within a
// unit are processed sequentially to preserve version-mapping ordering
// guarantees (spec.md §4.4/§5).
type WorkUnit struct {
	Name    string
	Records []Record
}

// RunWorkUnits processes units with at most c.Parallelism in flight at
// once, per spec.md §5 ("the coordinator processes independent work units
// with a bounded in-flight parallelism, default 4"). process is called
// once per unit and must itself preserve sequential ordering within it.
func (c *Coordinator) RunWorkUnits(ctx context.Context, units []WorkUnit, process func(ctx context.Context, unit WorkUnit) error) error {
	limit := c.Parallelism
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			return process(gctx, unit)
		})
	}
	return g.Wait()
}
