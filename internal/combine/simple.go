package combine

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-combo/internal/domain"
)

// Average returns the row-wise mean of scores. When weights is non-nil the
// result is the weighted mean (d1*w1 + ... + dn*wn) / (w1 + ... + wn).
//
// Errors:
//   - InvalidInputError: nil matrix or invalid weight entries
//   - ShapeMismatchError: len(weights) != number of estimators
func Average(scores *domain.ScoreMatrix, weights domain.WeightVector, opts ...Option) (domain.CombinedScores, error) {
	if err := checkScores(scores); err != nil {
		return nil, err
	}
	if err := checkWeights(weights, scores.Estimators()); err != nil {
		return nil, err
	}
	o := collectOptions(opts)
	// stat.Mean treats nil weights as uniform.
	var w []float64 = weights
	return reduceRows(scores, o.workers, func(i int) float64 {
		return stat.Mean(scores.RowView(i), w)
	}), nil
}

// Maximization returns the row-wise maximum of scores.
func Maximization(scores *domain.ScoreMatrix, opts ...Option) (domain.CombinedScores, error) {
	if err := checkScores(scores); err != nil {
		return nil, err
	}
	o := collectOptions(opts)
	return reduceRows(scores, o.workers, func(i int) float64 {
		return floats.Max(scores.RowView(i))
	}), nil
}

// Median returns the row-wise median of scores. For an even estimator count
// the median is the mean of the two middle values.
func Median(scores *domain.ScoreMatrix, opts ...Option) (domain.CombinedScores, error) {
	if err := checkScores(scores); err != nil {
		return nil, err
	}
	o := collectOptions(opts)
	return reduceRows(scores, o.workers, func(i int) float64 {
		return median(slices.Clone(scores.RowView(i)))
	}), nil
}

// median sorts values in place and returns their median.
// values must be non-empty.
func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// mean is the unweighted arithmetic mean used inside buckets.
func mean(values []float64) float64 { return stat.Mean(values, nil) }
