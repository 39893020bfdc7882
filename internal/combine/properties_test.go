package combine

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/ahrav/go-combo/internal/domain"
)

const tolerance = 1e-9

// randomMatrix is a quick.Generator producing bucket-friendly score matrices:
// the estimator count is always a multiple of the bucket count stored with it.
type randomMatrix struct {
	Rows    [][]float64
	Buckets int
	Seed    uint64
}

func (randomMatrix) Generate(r *rand.Rand, _ int) reflect.Value {
	buckets := 2 + r.Intn(3)
	perBucket := 1 + r.Intn(4)
	estimators := buckets * perBucket
	samples := 1 + r.Intn(8)

	rows := make([][]float64, samples)
	for i := range rows {
		rows[i] = make([]float64, estimators)
		for j := range rows[i] {
			rows[i][j] = r.Float64()*20 - 10
		}
	}
	return reflect.ValueOf(randomMatrix{Rows: rows, Buckets: buckets, Seed: r.Uint64()})
}

func (rm randomMatrix) matrix() *domain.ScoreMatrix {
	m, err := domain.NewScoreMatrix(rm.Rows)
	if err != nil {
		panic(err)
	}
	return m
}

var quickConfig = &quick.Config{MaxCount: 300}

func TestProperties_ConstantRows(t *testing.T) {
	// Property: when every estimator agrees, every combiner returns that value.
	err := quick.Check(func(rm randomMatrix) bool {
		for i, row := range rm.Rows {
			for j := range row {
				rm.Rows[i][j] = rm.Rows[i][0]
			}
		}
		m := rm.matrix()
		opts := BucketOptions{Buckets: rm.Buckets}.WithSeed(rm.Seed)

		results := make([]domain.CombinedScores, 0, 5)
		for _, fn := range []func() (domain.CombinedScores, error){
			func() (domain.CombinedScores, error) { return Average(m, nil) },
			func() (domain.CombinedScores, error) { return Maximization(m) },
			func() (domain.CombinedScores, error) { return Median(m) },
			func() (domain.CombinedScores, error) { return AOM(m, opts) },
			func() (domain.CombinedScores, error) { return MOA(m, opts) },
		} {
			got, err := fn()
			if err != nil {
				return false
			}
			results = append(results, got)
		}
		for _, got := range results {
			for i, row := range rm.Rows {
				if !scalar.EqualWithinAbs(got[i], row[0], tolerance) {
					return false
				}
			}
		}
		return true
	}, quickConfig)
	assert.NoError(t, err, "all combiners should converge on constant rows")
}

func TestProperties_MaximizationIsRowMax(t *testing.T) {
	err := quick.Check(func(rm randomMatrix) bool {
		got, err := Maximization(rm.matrix())
		if err != nil {
			return false
		}
		for i, row := range rm.Rows {
			if got[i] != floats.Max(row) {
				return false
			}
		}
		return true
	}, quickConfig)
	assert.NoError(t, err)
}

func TestProperties_UniformWeightsMatchUnweighted(t *testing.T) {
	err := quick.Check(func(rm randomMatrix, scale uint8) bool {
		m := rm.matrix()
		w := domain.Uniform(m.Estimators())
		floats.Scale(float64(scale)+1, w)

		plain, err := Average(m, nil)
		if err != nil {
			return false
		}
		weighted, err := Average(m, w)
		if err != nil {
			return false
		}
		return floats.EqualApprox(plain, weighted, tolerance)
	}, quickConfig)
	assert.NoError(t, err)
}

func TestProperties_BucketsBoundedByRowRange(t *testing.T) {
	err := quick.Check(func(rm randomMatrix, bootstrap bool) bool {
		m := rm.matrix()
		opts := BucketOptions{Buckets: rm.Buckets, Bootstrap: bootstrap}.WithSeed(rm.Seed)
		for _, mode := range []Mode{AverageOfMax, MaxOfAverage} {
			got, err := Buckets(mode, m, opts)
			if err != nil {
				return false
			}
			for i, row := range rm.Rows {
				lo, hi := floats.Min(row), floats.Max(row)
				if got[i] < lo-tolerance || got[i] > hi+tolerance {
					return false
				}
			}
		}
		return true
	}, quickConfig)
	assert.NoError(t, err)
}

// dynamicMatrix is a quick.Generator producing matrices wide enough for the
// dynamic bucket method, with a bucket count in [2, estimators].
type dynamicMatrix struct {
	Rows    [][]float64
	Buckets int
	Seed    uint64
}

func (dynamicMatrix) Generate(r *rand.Rand, _ int) reflect.Value {
	estimators := 6 + r.Intn(15)
	samples := 1 + r.Intn(8)

	rows := make([][]float64, samples)
	for i := range rows {
		rows[i] = make([]float64, estimators)
		for j := range rows[i] {
			rows[i][j] = r.Float64()*20 - 10
		}
	}
	return reflect.ValueOf(dynamicMatrix{
		Rows:    rows,
		Buckets: 2 + r.Intn(estimators-1),
		Seed:    r.Uint64(),
	})
}

func TestProperties_DynamicBucketsBoundedByRowRange(t *testing.T) {
	err := quick.Check(func(dm dynamicMatrix) bool {
		m, err := domain.NewScoreMatrix(dm.Rows)
		if err != nil {
			return false
		}
		opts := BucketOptions{Buckets: dm.Buckets, Method: Dynamic}.WithSeed(dm.Seed)
		for _, mode := range []Mode{AverageOfMax, MaxOfAverage} {
			got, err := Buckets(mode, m, opts)
			if err != nil {
				return false
			}
			for i, row := range dm.Rows {
				lo, hi := floats.Min(row), floats.Max(row)
				if got[i] < lo-tolerance || got[i] > hi+tolerance {
					return false
				}
			}
		}
		return true
	}, quickConfig)
	assert.NoError(t, err)
}

func TestProperties_MedianBetweenMinAndMax(t *testing.T) {
	err := quick.Check(func(rm randomMatrix) bool {
		got, err := Median(rm.matrix())
		if err != nil {
			return false
		}
		for i, row := range rm.Rows {
			if got[i] < floats.Min(row) || got[i] > floats.Max(row) {
				return false
			}
		}
		return true
	}, quickConfig)
	assert.NoError(t, err)
}

func TestProperties_SeededBucketsReproducible(t *testing.T) {
	err := quick.Check(func(rm randomMatrix, bootstrap bool) bool {
		m := rm.matrix()
		opts := BucketOptions{Buckets: rm.Buckets, Bootstrap: bootstrap}
		a, errA := AOM(m, opts.WithSeed(rm.Seed))
		b, errB := AOM(m, opts.WithSeed(rm.Seed))
		return errA == nil && errB == nil && reflect.DeepEqual(a, b)
	}, quickConfig)
	assert.NoError(t, err)
}

func TestProperties_WorkersDoNotChangeResults(t *testing.T) {
	err := quick.Check(func(rm randomMatrix, workers uint8) bool {
		m := rm.matrix()
		n := int(workers%8) + 2

		seqAvg, _ := Average(m, nil)
		parAvg, _ := Average(m, nil, WithWorkers(n))
		seqMed, _ := Median(m)
		parMed, _ := Median(m, WithWorkers(n))

		opts := BucketOptions{Buckets: rm.Buckets}
		seqAOM, _ := AOM(m, opts.WithSeed(rm.Seed))
		parOpts := opts.WithSeed(rm.Seed)
		parOpts.Workers = n
		parAOM, _ := AOM(m, parOpts)

		return reflect.DeepEqual(seqAvg, parAvg) &&
			reflect.DeepEqual(seqMed, parMed) &&
			reflect.DeepEqual(seqAOM, parAOM)
	}, quickConfig)
	assert.NoError(t, err)
}
