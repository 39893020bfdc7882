package combine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ahrav/go-combo/internal/domain"
)

// reduction collapses a non-empty slice to one value.
type reduction func(values []float64) float64

// operators returns the within-bucket and across-bucket reductions of m.
func (m Mode) operators() (within, across reduction) {
	switch m {
	case AverageOfMax:
		return floats.Max, mean
	default:
		return mean, floats.Max
	}
}

// AOM (average of maximum) splits the estimators into buckets, takes each
// bucket's per-sample maximum, and averages the bucket maxima.
//
// Errors:
//   - InvalidInputError: nil matrix
//   - ParameterRangeError: Buckets outside [2, n_estimators], or Dynamic
//     with fewer than six estimators
//   - UnevenBucketError: Static with n_estimators not divisible by Buckets
//   - UnsupportedStrategyError: unknown Method
func AOM(scores *domain.ScoreMatrix, opts BucketOptions) (domain.CombinedScores, error) {
	return Buckets(AverageOfMax, scores, opts)
}

// MOA (maximum of average) splits the estimators into buckets, takes each
// bucket's per-sample mean, and keeps the largest bucket mean. It fails
// under the same conditions as AOM.
func MOA(scores *domain.ScoreMatrix, opts BucketOptions) (domain.CombinedScores, error) {
	return Buckets(MaxOfAverage, scores, opts)
}

// Buckets runs the bucket combination for an explicit mode. AOM and MOA are
// shorthands for the two supported modes.
func Buckets(mode Mode, scores *domain.ScoreMatrix, opts BucketOptions) (domain.CombinedScores, error) {
	if !mode.valid() {
		return nil, &domain.UnsupportedStrategyError{Kind: "mode", Value: mode.String()}
	}
	if err := checkScores(scores); err != nil {
		return nil, err
	}
	assignment, err := AssignBuckets(scores.Estimators(), opts)
	if err != nil {
		return nil, err
	}
	return reduceBuckets(mode, scores, assignment, opts.Workers), nil
}

// reduceBuckets applies mode's two-stage reduction to every sample.
func reduceBuckets(
	mode Mode,
	scores *domain.ScoreMatrix,
	assignment BucketAssignment,
	workers int,
) domain.CombinedScores {
	within, across := mode.operators()

	widest := 0
	for _, members := range assignment {
		widest = max(widest, len(members))
	}

	return reduceRows(scores, workers, func(i int) float64 {
		row := scores.RowView(i)
		bucketScores := make([]float64, len(assignment))
		values := make([]float64, 0, widest)
		for b, members := range assignment {
			values = values[:0]
			for _, j := range members {
				values = append(values, row[j])
			}
			bucketScores[b] = within(values)
		}
		return across(bucketScores)
	})
}
