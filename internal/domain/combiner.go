package domain

// Combiner reduces a score matrix to one value per sample.
// Implementations must be deterministic for a fixed configuration and,
// where randomness is involved, a fixed seed.
//
// The method should handle edge cases such as:
//   - Weight vectors whose length differs from the estimator count
//   - Parameters outside their valid range
//   - Strategy names that are not supported
//
// Example:
//
//	scores, _ := NewScoreMatrix([][]float64{{0.1, 0.9}, {0.4, 0.2}})
//	combined, err := combiner.Combine(scores)
type Combiner interface {
	// Combine returns a vector with one entry per row of scores.
	// No partial result is returned alongside an error.
	Combine(scores *ScoreMatrix) (CombinedScores, error)
}

// CombinerFunc adapts an ordinary function to the Combiner interface.
type CombinerFunc func(scores *ScoreMatrix) (CombinedScores, error)

// Combine calls f(scores).
func (f CombinerFunc) Combine(scores *ScoreMatrix) (CombinedScores, error) { return f(scores) }
