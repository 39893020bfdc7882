package combine

import (
	"math"

	"github.com/ahrav/go-combo/internal/domain"
)

func checkScores(scores *domain.ScoreMatrix) error {
	if scores == nil {
		return domain.NewInvalidInputError("scores", "matrix is nil")
	}
	return nil
}

// checkWeights validates optional weights against the estimator dimension.
// A nil vector means "unweighted" and is always accepted.
func checkWeights(weights domain.WeightVector, estimators int) error {
	if weights == nil {
		return nil
	}
	return weights.Validate(estimators)
}

// checkBuckets enforces 2 <= buckets <= estimators.
func checkBuckets(buckets, estimators int) error {
	if buckets < 2 || buckets > estimators {
		return &domain.ParameterRangeError{
			Param: "n_buckets",
			Value: buckets,
			Min:   2,
			Max:   estimators,
		}
	}
	return nil
}

// checkDiscrete rejects any non-integral entry.
func checkDiscrete(labels *domain.ScoreMatrix) error {
	for i := 0; i < labels.Samples(); i++ {
		for j, v := range labels.RowView(i) {
			if v != math.Trunc(v) {
				return domain.NewInvalidInputError("labels",
					"continuous value %v at (%d, %d); majority vote needs discrete labels", v, i, j)
			}
		}
	}
	return nil
}
