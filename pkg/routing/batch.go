package routing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Query is one (start, end) pair submitted to BatchRoute.
type Query struct {
	Start string
	End   string
}

// BatchResult pairs a Query with its outcome, preserving input order so
// callers can correlate results positionally even though queries run
// concurrently.
type BatchResult struct {
	Query  Query
	Result RoutingResult
	Err    error
}

// BatchRoute runs every query concurrently against the same Router, bounded
// by workers concurrent goroutines. This is safe because Router only reads
// shared adjacency/index state; each query keeps its own visited sets and
// paths. A workers value <= 0 means unbounded concurrency.
func BatchRoute(ctx context.Context, rt *Router, queries []Query, workers int) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			result, err := rt.Route(q.Start, q.End)
			if err == nil && !result.Success {
				err = fmt.Errorf("routing %s->%s: %w", q.Start, q.End, ErrRoutingStall)
			}
			results[i] = BatchResult{Query: q, Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
