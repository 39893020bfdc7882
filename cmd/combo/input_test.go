package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-combo/internal/domain"
)

func TestReadMatrix(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
		want   [][]float64
	}{
		{
			name:   "csv",
			input:  "1,2\n3,4\n",
			format: formatCSV,
			want:   [][]float64{{1, 2}, {3, 4}},
		},
		{
			name:   "csv header comments and spacing",
			input:  "# detector scores\nknn,lof\n0.5, 1e-3\n\n  2 ,3\n",
			format: formatCSV,
			want:   [][]float64{{0.5, 0.001}, {2, 3}},
		},
		{
			name:   "json",
			input:  "[[1, 2.5], [3, 4]]\n",
			format: formatJSON,
			want:   [][]float64{{1, 2.5}, {3, 4}},
		},
		{
			name:   "auto detects json",
			input:  " \n\t[[7]]",
			format: formatAuto,
			want:   [][]float64{{7}},
		},
		{
			name:   "auto falls back to csv",
			input:  "7,8\n",
			format: formatAuto,
			want:   [][]float64{{7, 8}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := readMatrix(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Rows())
		})
	}
}

func TestReadMatrix_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		format   string
		contains string
	}{
		{"csv bad cell", "1,2\n3,x\n", formatCSV, `line 2: column 1: "x" is not a number`},
		{"csv second header", "a,b\nc,d\n", formatCSV, "is not a number"},
		{"csv ragged", "1,2\n3\n", formatCSV, "ragged input"},
		{"csv empty", "", formatCSV, "0 rows"},
		{"csv bare quote", "1,\"2\n", formatCSV, "malformed CSV"},
		{"json wrong type", `[[1, "a"]]`, formatJSON, "malformed JSON"},
		{"json trailing data", "[[1]] [[2]]", formatJSON, "trailing data"},
		{"json not a matrix", `{"a": 1}`, formatJSON, "malformed JSON"},
		{"json non finite", "[[1e400]]", formatJSON, "malformed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMatrix(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	_, err := readMatrix(strings.NewReader("1"), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown input format")
}

func TestLoadMatrix(t *testing.T) {
	t.Run("extension selects format", func(t *testing.T) {
		path := writeFile(t, "scores.csv", "1,2\n")
		m, err := loadMatrix(path, formatAuto, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{1, 2}}, m.Rows())
	})

	t.Run("unknown extension sniffs content", func(t *testing.T) {
		path := writeFile(t, "scores.dat", "[[3, 4]]")
		m, err := loadMatrix(path, formatAuto, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{3, 4}}, m.Rows())
	})

	t.Run("stdin", func(t *testing.T) {
		m, err := loadMatrix("-", formatAuto, strings.NewReader("5\n6\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{5}, {6}}, m.Rows())
	})

	t.Run("errors name the path", func(t *testing.T) {
		path := writeFile(t, "bad.json", "[[")
		_, err := loadMatrix(path, formatAuto, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestParseWeights(t *testing.T) {
	w, err := parseWeights(" 1, 2 ,0.5")
	require.NoError(t, err)
	assert.Equal(t, domain.WeightVector{1, 2, 0.5}, w)

	w, err = parseWeights("  ")
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = parseWeights("1,,2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestFormatScores(t *testing.T) {
	assert.Equal(t, "1.5\n2\n-0.25\n", string(formatScores(domain.CombinedScores{1.5, 2, -0.25})))
	assert.Empty(t, formatScores(nil))
}

func FuzzReadMatrix(f *testing.F) {
	for _, seed := range []string{"1,2\n3,4\n", "[[1,2],[3,4]]", "a,b\n1,2", "# c\n", "[[", "1,\"2", ""} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		m, err := readMatrix(strings.NewReader(src), formatAuto)
		if err != nil {
			return
		}
		samples, estimators := m.Dims()
		if samples == 0 || estimators == 0 {
			t.Fatalf("accepted empty matrix %dx%d", samples, estimators)
		}
	})
}
