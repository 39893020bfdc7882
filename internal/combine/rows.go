package combine

import (
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-combo/internal/domain"
)

// Option tunes how a combiner executes. Options never change the result.
type Option func(*execOptions)

type execOptions struct {
	workers int
}

// WithWorkers fans rows out over up to n goroutines. Values below 2 keep
// the reduction on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *execOptions) { o.workers = n }
}

func collectOptions(opts []Option) execOptions {
	var o execOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// reduceRows evaluates fn for every sample and stores the results in order.
// fn must only read shared data; each row is written by exactly one
// goroutine, so no synchronization is needed on the output slice.
func reduceRows(scores *domain.ScoreMatrix, workers int, fn func(i int) float64) domain.CombinedScores {
	n := scores.Samples()
	out := make(domain.CombinedScores, n)

	if workers < 2 || n < 2 {
		for i := range out {
			out[i] = fn(i)
		}
		return out
	}

	workers = min(workers, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = fn(i)
			}
			return nil
		})
	}
	// fn cannot fail; Wait only joins.
	_ = g.Wait()
	return out
}
