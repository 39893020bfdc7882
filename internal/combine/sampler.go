package combine

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/ahrav/go-combo/internal/domain"
)

// minDynamicBucket is the smallest bucket the dynamic method may draw.
const minDynamicBucket = 2

// BucketOptions configures AOM, MOA and AssignBuckets.
//
// Rand is consumed by every call: reuse a generator across calls to get a
// fresh assignment each time, or use WithSeed to make a call reproducible.
// A nil Rand draws from the process-wide generator.
type BucketOptions struct {
	// Buckets is the number of subgroups, 2 <= Buckets <= n_estimators.
	Buckets int
	// Method is Static (equal sizes) or Dynamic (random sizes).
	Method Method
	// Bootstrap draws each static bucket independently, allowing the same
	// estimator to land in several buckets. Ignored by Dynamic, which
	// always samples per bucket.
	Bootstrap bool
	// Rand supplies randomness for shuffling and sampling.
	Rand *rand.Rand
	// Workers is forwarded to the row reduction; see WithWorkers.
	Workers int
}

// DefaultBucketOptions returns five static buckets without bootstrap.
func DefaultBucketOptions() BucketOptions {
	return BucketOptions{
		Buckets: 5,
		Method:  Static,
	}
}

// WithSeed returns a copy of o whose Rand is a fresh generator seeded with seed.
func (o BucketOptions) WithSeed(seed uint64) BucketOptions {
	o.Rand = NewRand(seed)
	return o
}

// validate checks o against an ensemble of the given size before any
// randomness is consumed.
func (o BucketOptions) validate(estimators int) error {
	if !o.Method.valid() {
		return &domain.UnsupportedStrategyError{Kind: "method", Value: o.Method.String()}
	}
	if err := checkBuckets(o.Buckets, estimators); err != nil {
		return err
	}
	switch o.Method {
	case Static:
		if estimators%o.Buckets != 0 {
			return &domain.UnevenBucketError{Estimators: estimators, Buckets: o.Buckets}
		}
	case Dynamic:
		// Sizes are drawn from [2, floor(n/2)), which is empty below 6.
		if estimators/2 <= minDynamicBucket {
			return &domain.ParameterRangeError{
				Param: "n_estimators",
				Value: estimators,
				Min:   2 * (minDynamicBucket + 1),
				Max:   domain.NoUpperBound,
			}
		}
	}
	return nil
}

// BucketAssignment maps a bucket index to the estimator columns it holds.
type BucketAssignment [][]int

// AssignBuckets draws a bucket assignment for an ensemble of estimators.
// Given the same options and seed it returns exactly the assignment that
// AOM or MOA would reduce over.
//
// Static without bootstrap shuffles 0..n-1 and cuts it into equal
// contiguous slices, so every estimator appears exactly once. Static with
// bootstrap samples n/buckets distinct estimators per bucket. Dynamic
// draws each bucket's size uniformly from [2, floor(n/2)) and then samples
// that many distinct estimators. A single generator advances across all
// buckets, so bucket sizes are independent draws.
func AssignBuckets(estimators int, opts BucketOptions) (BucketAssignment, error) {
	if err := opts.validate(estimators); err != nil {
		return nil, err
	}
	return assign(estimators, opts, resolveRand(opts.Rand)), nil
}

func assign(estimators int, opts BucketOptions, rng *rand.Rand) BucketAssignment {
	buckets := make(BucketAssignment, opts.Buckets)

	switch {
	case opts.Method == Static && !opts.Bootstrap:
		size := estimators / opts.Buckets
		perm := rng.Perm(estimators)
		for b := range buckets {
			buckets[b] = perm[b*size : (b+1)*size : (b+1)*size]
		}

	case opts.Method == Static:
		size := estimators / opts.Buckets
		for b := range buckets {
			buckets[b] = sampleWithoutReplacement(size, estimators, rng)
		}

	default:
		upper := estimators / 2
		for b := range buckets {
			size := minDynamicBucket + rng.IntN(upper-minDynamicBucket)
			buckets[b] = sampleWithoutReplacement(size, estimators, rng)
		}
	}
	return buckets
}

// sampleWithoutReplacement draws k distinct indices from [0, n).
func sampleWithoutReplacement(k, n int, rng *rand.Rand) []int {
	idx := make([]int, k)
	sampleuv.WithoutReplacement(idx, n, rng)
	return idx
}
