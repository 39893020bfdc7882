package combine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-combo/internal/domain"
)

func mustMatrix(t testing.TB, rows [][]float64) *domain.ScoreMatrix {
	t.Helper()
	m, err := domain.NewScoreMatrix(rows)
	require.NoError(t, err)
	return m
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]float64
		weights  domain.WeightVector
		expected domain.CombinedScores
		sentinel error
	}{
		{
			name:     "unweighted mean",
			rows:     [][]float64{{1, 2, 3}, {0.5, 0.5, 2}},
			expected: domain.CombinedScores{2, 1},
		},
		{
			name:     "weighted mean (1*1+3*3)/(1+3)",
			rows:     [][]float64{{1, 3}},
			weights:  domain.WeightVector{1, 3},
			expected: domain.CombinedScores{2.5},
		},
		{
			name:     "zero weight drops an estimator",
			rows:     [][]float64{{10, 2, 4}},
			weights:  domain.WeightVector{0, 1, 1},
			expected: domain.CombinedScores{3},
		},
		{
			name:     "single estimator",
			rows:     [][]float64{{0.7}, {0.1}},
			expected: domain.CombinedScores{0.7, 0.1},
		},
		{
			name:     "weights too short",
			rows:     [][]float64{{1, 2, 3}},
			weights:  domain.WeightVector{1, 1},
			sentinel: domain.ErrShapeMismatch,
		},
		{
			name:     "negative weight",
			rows:     [][]float64{{1, 2}},
			weights:  domain.WeightVector{1, -1},
			sentinel: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Average(mustMatrix(t, tt.rows), tt.weights)
			if tt.sentinel != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.sentinel)
				assert.Nil(t, got, "no partial result on error")
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, got, 1e-12)
		})
	}
}

func TestAverage_ShapeMismatchNamesShapes(t *testing.T) {
	_, err := Average(mustMatrix(t, [][]float64{{1, 2, 3}}), domain.WeightVector{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected shape (1, 3), received (1, 2)")
}

func TestMaximization(t *testing.T) {
	got, err := Maximization(mustMatrix(t, [][]float64{
		{0.1, 0.9, 0.3},
		{-2, -1, -3},
		{5, 5, 5},
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.CombinedScores{0.9, -1, 5}, got)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]float64
		expected domain.CombinedScores
	}{
		{
			name:     "odd count returns middle value",
			rows:     [][]float64{{0.9, 0.1, 0.5}},
			expected: domain.CombinedScores{0.5},
		},
		{
			name:     "even count averages the two middle values",
			rows:     [][]float64{{0.2, 0.9, 0.6, 0.7}},
			expected: domain.CombinedScores{0.65},
		},
		{
			name:     "two estimators",
			rows:     [][]float64{{0.3, 0.7}, {1, 1}},
			expected: domain.CombinedScores{0.5, 1},
		},
		{
			name:     "single estimator",
			rows:     [][]float64{{0.75}},
			expected: domain.CombinedScores{0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMatrix(t, tt.rows)
			got, err := Median(m)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, got, 1e-12)
			assert.Equal(t, tt.rows, m.Rows(), "Median must not reorder the input")
		})
	}
}

func TestSimpleAggregators_NilMatrix(t *testing.T) {
	_, err := Average(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Maximization(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Median(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
