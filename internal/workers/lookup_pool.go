package workers

import (
	"context"

	"golang.org/x/sync/errgroup"

	"infinite-experiment/flightlog/internal/logging"
)

// DefaultLookupConcurrency keeps provider billing and rate limits in check.
const DefaultLookupConcurrency = 2

// LookupPool runs independent provider lookups with bounded parallelism.
// Only network calls belong here; results are consumed serially.
type LookupPool struct {
	concurrency int
}

func NewLookupPool(concurrency int) *LookupPool {
	if concurrency < 1 {
		concurrency = DefaultLookupConcurrency
	}
	return &LookupPool{concurrency: concurrency}
}

func (p *LookupPool) Concurrency() int {
	return p.concurrency
}

// LookupResult pairs one lookup's value with its error.
type LookupResult[T any] struct {
	Value T
	Err   error
}

// Lookup calls fn for every input and returns the results in input order.
// A failing lookup does not stop its siblings. Inputs not started before
// ctx is done get ctx.Err().
func Lookup[In, Out any](ctx context.Context, p *LookupPool, inputs []In, fn func(context.Context, In) (Out, error)) []LookupResult[Out] {
	results := make([]LookupResult[Out], len(inputs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(ctx, in)
			results[i] = LookupResult[Out]{Value: v, Err: err}
			if err != nil {
				logging.Debug("Lookup failed", "index", i, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
