package combine

import (
	"slices"

	"github.com/ahrav/go-combo/internal/domain"
)

// MajorityVote returns, for every sample, the label with the largest total
// weight among the estimators that voted for it. weights defaults to one
// vote per estimator. nClasses is informational and affects neither the
// result nor the cost.
//
// Ties resolve to the smallest tied label, so the result never depends on
// estimator order.
//
// Errors:
//   - InvalidInputError: nil matrix, non-integral labels, or invalid weights
//   - ShapeMismatchError: len(weights) != number of estimators
func MajorityVote(
	labels *domain.ScoreMatrix,
	nClasses int,
	weights domain.WeightVector,
	opts ...Option,
) (domain.CombinedScores, error) {
	if err := checkScores(labels); err != nil {
		return nil, err
	}
	if err := checkDiscrete(labels); err != nil {
		return nil, err
	}
	if weights == nil {
		weights = domain.Uniform(labels.Estimators())
	}
	if err := weights.Validate(labels.Estimators()); err != nil {
		return nil, err
	}

	o := collectOptions(opts)
	return reduceRows(labels, o.workers, func(i int) float64 {
		return weightedMode(labels.RowView(i), weights)
	}), nil
}

// weightedMode returns the value of row with the largest summed weight.
// A row holds at most len(row) distinct labels, which bounds the tally.
func weightedMode(row []float64, weights domain.WeightVector) float64 {
	tally := make(map[float64]float64, len(row))
	for j, label := range row {
		tally[label] += weights[j]
	}

	candidates := make([]float64, 0, len(tally))
	for label := range tally {
		candidates = append(candidates, label)
	}
	slices.Sort(candidates)

	winner, best := candidates[0], tally[candidates[0]]
	for _, label := range candidates[1:] {
		if tally[label] > best {
			winner, best = label, tally[label]
		}
	}
	return winner
}
