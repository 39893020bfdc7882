package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-combo/internal/combine"
	"github.com/ahrav/go-combo/internal/domain"
)

func seed(v uint64) *uint64 { return &v }

func TestBucketUnit_SingletonBuckets(t *testing.T) {
	// One estimator per bucket: AOM reduces to the row mean and MOA to the
	// row max whatever the shuffle.
	state := scoreState(t, [][]float64{{0.25, 0.5, 0.75}, {1, 0, 0.5}})
	cfg := BucketConfig{Buckets: 3, Method: combine.Static}

	aom, err := NewAOMUnit("aom", cfg)
	require.NoError(t, err)
	next, err := aom.Execute(context.Background(), state)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, outputOf(t, next, "aom"), 1e-12)

	moa, err := NewMOAUnit("moa", cfg)
	require.NoError(t, err)
	next, err = moa.Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, domain.CombinedScores{0.75, 1}, outputOf(t, next, "moa"))
}

func TestBucketUnit_SeededMatchesCore(t *testing.T) {
	rows := [][]float64{
		{0.1, 0.8, 0.3, 0.5, 0.9, 0.2},
		{0.6, 0.4, 0.7, 0.1, 0.2, 0.3},
	}
	state := scoreState(t, rows)
	scores, ok := domain.Get(state, domain.KeyScores)
	require.True(t, ok)

	for _, method := range []combine.Method{combine.Static, combine.Dynamic} {
		t.Run(method.String(), func(t *testing.T) {
			cfg := BucketConfig{Buckets: 2, Method: method, Seed: seed(42)}
			unit, err := NewAOMUnit("aom", cfg)
			require.NoError(t, err)

			first, err := unit.Execute(context.Background(), state)
			require.NoError(t, err)
			second, err := unit.Execute(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, outputOf(t, first, "aom"), outputOf(t, second, "aom"),
				"a seeded unit reproduces its assignment on every execution")

			want, err := combine.AOM(scores, combine.BucketOptions{Buckets: 2, Method: method}.WithSeed(42))
			require.NoError(t, err)
			assert.Equal(t, want, outputOf(t, first, "aom"))
		})
	}
}

func TestBucketUnit_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name     string
		config   BucketConfig
		rows     [][]float64
		sentinel error
	}{
		{
			name:     "uneven static partition",
			config:   BucketConfig{Buckets: 3},
			rows:     [][]float64{{1, 2, 3, 4}},
			sentinel: domain.ErrUnevenBucket,
		},
		{
			name:     "more buckets than estimators",
			config:   BucketConfig{Buckets: 5},
			rows:     [][]float64{{1, 2, 3, 4}},
			sentinel: domain.ErrParameterRange,
		},
		{
			name:     "dynamic on a small ensemble",
			config:   BucketConfig{Buckets: 2, Method: combine.Dynamic},
			rows:     [][]float64{{1, 2, 3, 4}},
			sentinel: domain.ErrParameterRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewMOAUnit("moa", tt.config)
			require.NoError(t, err)

			_, err = unit.Execute(context.Background(), scoreState(t, tt.rows))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), "moa failed")
		})
	}
}

func TestNewBucketUnit_Validation(t *testing.T) {
	_, err := NewAOMUnit("", DefaultBucketConfig())
	assert.ErrorIs(t, err, ErrEmptyUnitName)

	_, err = NewAOMUnit("aom", BucketConfig{Buckets: 1})
	assert.ErrorContains(t, err, "configuration validation failed")

	_, err = NewAOMUnit("aom", BucketConfig{Buckets: 2, Method: combine.Method(9)})
	assert.ErrorIs(t, err, domain.ErrUnsupportedStrategy)

	_, err = NewBucketUnit("x", combine.Mode(0), DefaultBucketConfig())
	assert.ErrorIs(t, err, domain.ErrUnsupportedStrategy)
}

func TestBucketUnit_Strategy(t *testing.T) {
	aom, err := NewAOMUnit("a", DefaultBucketConfig())
	require.NoError(t, err)
	moa, err := NewMOAUnit("m", DefaultBucketConfig())
	require.NoError(t, err)

	assert.Equal(t, "aom", aom.Strategy())
	assert.Equal(t, "moa", moa.Strategy())
}

func TestDefaultBucketConfig(t *testing.T) {
	cfg := DefaultBucketConfig()
	assert.Equal(t, 5, cfg.Buckets)
	assert.Equal(t, combine.Static, cfg.Method)
	assert.False(t, cfg.Bootstrap)
	assert.Nil(t, cfg.Seed)
}

func TestNewAOMFromConfig(t *testing.T) {
	unit, err := NewAOMFromConfig("aom", map[string]any{
		"buckets":   2,
		"method":    "Dynamic",
		"bootstrap": true,
		"seed":      7,
	})
	require.NoError(t, err)

	bu, ok := unit.(*BucketUnit)
	require.True(t, ok)
	assert.Equal(t, 2, bu.config.Buckets)
	assert.Equal(t, combine.Dynamic, bu.config.Method)
	assert.True(t, bu.config.Bootstrap)
	require.NotNil(t, bu.config.Seed)
	assert.Equal(t, uint64(7), *bu.config.Seed)

	_, err = NewAOMFromConfig("aom", map[string]any{"method": "dynamc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedStrategy)
	assert.Contains(t, err.Error(), `did you mean "dynamic"`)

	_, err = NewMOAFromConfig("moa", map[string]any{"bukets": 2})
	assert.Error(t, err)

	unit, err = NewMOAFromConfig("moa", nil)
	require.NoError(t, err)
	assert.Equal(t, "moa", unit.(*BucketUnit).Strategy())
}

func TestBucketUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewAOMUnit("aom", DefaultBucketConfig())
	require.NoError(t, err)

	require.NoError(t, unit.UnmarshalParameters(yamlNode(t, "buckets: 3\nmethod: dynamic\nseed: 11\n")))
	assert.Equal(t, 3, unit.config.Buckets)
	assert.Equal(t, combine.Dynamic, unit.config.Method)
	assert.Equal(t, uint64(11), *unit.config.Seed)

	err = unit.UnmarshalParameters(yamlNode(t, "buckets: 1\n"))
	assert.ErrorContains(t, err, "parameter validation failed")
	assert.Equal(t, 3, unit.config.Buckets, "config unchanged on error")
}
