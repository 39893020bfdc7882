package domain

import (
	"math"
	"slices"
)

// ScoreMatrix is a dense (samples × estimators) matrix of finite scores.
// Rows are samples and columns are estimators. The zero value is not
// usable; build one with NewScoreMatrix or NewScoreMatrixFromDense.
//
// A ScoreMatrix is never mutated after construction, so it can be shared
// between goroutines and stored in State without copying.
type ScoreMatrix struct {
	rows int
	cols int
	// data is row-major: element (i, j) lives at data[i*cols+j].
	data []float64
}

// NewScoreMatrix builds a ScoreMatrix from a slice of rows. The input is
// copied. It returns an InvalidInputError when the input is empty, ragged,
// or contains NaN or infinite values.
func NewScoreMatrix(rows [][]float64) (*ScoreMatrix, error) {
	if len(rows) == 0 {
		return nil, NewInvalidInputError("scores", "expected 2D array with at least one sample, got 0 rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, NewInvalidInputError("scores", "expected 2D array with at least one estimator, got 0 columns")
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, NewInvalidInputError("scores",
				"ragged input: row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return newScoreMatrix(len(rows), cols, data)
}

// NewScoreMatrixFromDense builds a ScoreMatrix from row-major data of the
// given shape. The data slice is copied.
func NewScoreMatrixFromDense(rows, cols int, data []float64) (*ScoreMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, NewInvalidInputError("scores", "expected positive shape, got (%d, %d)", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, NewInvalidInputError("scores",
			"shape (%d, %d) needs %d values, got %d", rows, cols, rows*cols, len(data))
	}
	return newScoreMatrix(rows, cols, slices.Clone(data))
}

func newScoreMatrix(rows, cols int, data []float64) (*ScoreMatrix, error) {
	for idx, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, NewInvalidInputError("scores",
				"non-finite value %v at (%d, %d)", v, idx/cols, idx%cols)
		}
	}
	return &ScoreMatrix{rows: rows, cols: cols, data: data}, nil
}

// Dims returns the number of samples and estimators.
func (m *ScoreMatrix) Dims() (samples, estimators int) { return m.rows, m.cols }

// Samples returns the number of rows.
func (m *ScoreMatrix) Samples() int { return m.rows }

// Estimators returns the number of columns.
func (m *ScoreMatrix) Estimators() int { return m.cols }

// At returns the score of estimator j for sample i.
func (m *ScoreMatrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// RowView returns row i without copying. Callers must not modify it.
func (m *ScoreMatrix) RowView(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Row returns a copy of row i.
func (m *ScoreMatrix) Row(i int) []float64 { return slices.Clone(m.RowView(i)) }

// RawData returns a copy of the row-major backing data.
func (m *ScoreMatrix) RawData() []float64 { return slices.Clone(m.data) }

// Rows returns the matrix as a freshly allocated slice of rows.
func (m *ScoreMatrix) Rows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Clone returns a deep copy of the matrix.
func (m *ScoreMatrix) Clone() *ScoreMatrix {
	return &ScoreMatrix{rows: m.rows, cols: m.cols, data: slices.Clone(m.data)}
}

func (m *ScoreMatrix) cloneValue() any { return m.Clone() }

// WeightVector holds one non-negative relative importance per estimator.
type WeightVector []float64

// Uniform returns a WeightVector of n ones.
func Uniform(n int) WeightVector {
	w := make(WeightVector, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// Validate checks that the vector pairs with a matrix of the given estimator
// count: the length must match exactly, and entries must be finite,
// non-negative and not all zero.
func (w WeightVector) Validate(estimators int) error {
	if len(w) != estimators {
		return &ShapeMismatchError{Input: "weights", Expected: estimators, Received: len(w)}
	}
	var sum float64
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInvalidInputError("weights", "non-finite weight %v at index %d", v, i)
		}
		if v < 0 {
			return NewInvalidInputError("weights", "negative weight %v at index %d", v, i)
		}
		sum += v
	}
	if sum == 0 {
		return NewInvalidInputError("weights", "weights sum to zero")
	}
	return nil
}

// CombinedScores is the per-sample output of a combiner: a consensus score,
// or a winning label for majority vote.
type CombinedScores []float64
