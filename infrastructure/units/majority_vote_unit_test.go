package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

func TestMajorityVoteUnit_Execute(t *testing.T) {
	tests := []struct {
		name     string
		config   MajorityVoteConfig
		state    domain.State
		expected domain.CombinedScores
	}{
		{
			name:     "unweighted vote",
			config:   DefaultMajorityVoteConfig(),
			state:    labelState(t, [][]float64{{0, 0, 1}, {1, 1, 0}}),
			expected: domain.CombinedScores{0, 1},
		},
		{
			name:     "configured weights",
			config:   MajorityVoteConfig{Classes: 2, Weights: domain.WeightVector{1, 1, 3}},
			state:    labelState(t, [][]float64{{0, 0, 1}}),
			expected: domain.CombinedScores{1},
		},
		{
			name:   "state weights",
			config: DefaultMajorityVoteConfig(),
			state: domain.With(labelState(t, [][]float64{{0, 0, 1}}),
				domain.KeyWeights, domain.WeightVector{1, 1, 3}),
			expected: domain.CombinedScores{1},
		},
		{
			name:     "tie goes to the smallest label",
			config:   MajorityVoteConfig{Classes: 3},
			state:    labelState(t, [][]float64{{2, 1, 2, 1}}),
			expected: domain.CombinedScores{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewMajorityVoteUnit("vote", tt.config)
			require.NoError(t, err)

			next, err := unit.Execute(context.Background(), tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outputOf(t, next, "vote"))
		})
	}
}

func TestMajorityVoteUnit_ReadsLabelsNotScores(t *testing.T) {
	unit, err := NewMajorityVoteUnit("vote", DefaultMajorityVoteConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), scoreState(t, [][]float64{{0, 1}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrMissingInput)
	assert.Contains(t, err.Error(), `"labels"`)

	unit, err = NewMajorityVoteUnit("vote", MajorityVoteConfig{IOConfig: IOConfig{InputKey: "scores"}})
	require.NoError(t, err)
	next, err := unit.Execute(context.Background(), scoreState(t, [][]float64{{0, 1, 1}}))
	require.NoError(t, err)
	assert.Equal(t, domain.CombinedScores{1}, outputOf(t, next, "vote"))
}

func TestMajorityVoteUnit_ContinuousInput(t *testing.T) {
	unit, err := NewMajorityVoteUnit("vote", DefaultMajorityVoteConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), labelState(t, [][]float64{{0.5, 1}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "majority vote failed")
}

func TestMajorityVoteUnit_Combine(t *testing.T) {
	unit, err := NewMajorityVoteUnit("vote", DefaultMajorityVoteConfig())
	require.NoError(t, err)

	m, err := domain.NewScoreMatrix([][]float64{{3, 3, 4}})
	require.NoError(t, err)
	got, err := unit.Combine(m)
	require.NoError(t, err)
	assert.Equal(t, domain.CombinedScores{3}, got)
}

func TestNewMajorityVoteFromConfig(t *testing.T) {
	unit, err := NewMajorityVoteFromConfig("vote", map[string]any{
		"classes": 4,
		"weights": []any{1, 1, 2},
	})
	require.NoError(t, err)
	mv := unit.(*MajorityVoteUnit)
	assert.Equal(t, 4, mv.config.Classes)
	assert.Equal(t, "majority_vote", mv.Strategy())

	_, err = NewMajorityVoteFromConfig("vote", map[string]any{"classes": -1})
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestUnits_DataFlow(t *testing.T) {
	vote, err := NewMajorityVoteUnit("vote", DefaultMajorityVoteConfig())
	require.NoError(t, err)
	assert.Equal(t, "labels", vote.InputKey())
	assert.Equal(t, "vote", vote.OutputKey())

	avg, err := NewAverageUnit("avg", AverageConfig{IOConfig: IOConfig{InputKey: "raw", OutputKey: "blend"}})
	require.NoError(t, err)
	assert.Equal(t, "raw", avg.InputKey())
	assert.Equal(t, "blend", avg.OutputKey())

	aom, err := NewAOMUnit("aom", DefaultBucketConfig())
	require.NoError(t, err)
	assert.Equal(t, "scores", aom.InputKey())
	assert.Equal(t, "aom", aom.OutputKey())
}
