package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahrav/go-combo/internal/domain"
)

// Input formats accepted by --input-format.
const (
	formatAuto = "auto"
	formatCSV  = "csv"
	formatJSON = "json"
)

// openInput opens path for reading. "-" reads stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// loadMatrix reads a matrix from path in the given format, resolving
// "auto" from the file extension or, for stdin, from the content.
func loadMatrix(path, format string, stdin io.Reader) (*domain.ScoreMatrix, error) {
	rc, err := openInput(path, stdin)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if format == formatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = formatJSON
		case ".csv", ".tsv", ".txt":
			format = formatCSV
		}
	}

	m, err := readMatrix(rc, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// readMatrix parses a score matrix. With formatAuto the first non-blank
// byte decides: '[' selects JSON, anything else CSV.
func readMatrix(r io.Reader, format string) (*domain.ScoreMatrix, error) {
	br := bufio.NewReader(r)
	if format == formatAuto {
		format = sniffFormat(br)
	}

	switch format {
	case formatCSV:
		return readCSV(br)
	case formatJSON:
		return readJSON(br)
	default:
		return nil, fmt.Errorf("unknown input format %q: expected auto, csv or json", format)
	}
}

func sniffFormat(br *bufio.Reader) string {
	for n := 1; n <= br.Size(); n++ {
		peek, err := br.Peek(n)
		if err != nil {
			return formatCSV
		}
		switch peek[n-1] {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return formatJSON
		default:
			return formatCSV
		}
	}
	return formatCSV
}

// readCSV parses one sample per record and one estimator per field. Lines
// starting with '#' are comments; a first record that does not parse as
// numbers is treated as a header.
func readCSV(r io.Reader) (*domain.ScoreMatrix, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var rows [][]float64
	for line := 0; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewInvalidInputError("scores", "malformed CSV: %v", err)
		}

		row, perr := parseRecord(record)
		if perr != nil {
			if line == 0 && len(rows) == 0 {
				continue
			}
			ln, _ := cr.FieldPos(0)
			return nil, domain.NewInvalidInputError("scores", "line %d: %v", ln, perr)
		}
		rows = append(rows, row)
	}
	return domain.NewScoreMatrix(rows)
}

func parseRecord(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for j, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %q is not a number", j, field)
		}
		row[j] = v
	}
	return row, nil
}

// readJSON parses a single array of arrays of numbers.
func readJSON(r io.Reader) (*domain.ScoreMatrix, error) {
	dec := json.NewDecoder(r)
	var rows [][]float64
	if err := dec.Decode(&rows); err != nil {
		return nil, domain.NewInvalidInputError("scores", "malformed JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewInvalidInputError("scores", "malformed JSON: trailing data after matrix")
	}
	return domain.NewScoreMatrix(rows)
}

// parseWeights parses a comma separated list such as "1,2,0.5".
func parseWeights(s string) (domain.WeightVector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	w := make(domain.WeightVector, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, domain.NewInvalidInputError("weights", "entry %d: %q is not a number", i, f)
		}
		w[i] = v
	}
	return w, nil
}

// formatScores renders combined scores as one value per line.
func formatScores(scores domain.CombinedScores) []byte {
	var buf bytes.Buffer
	for _, s := range scores {
		buf.WriteString(strconv.FormatFloat(s, 'g', -1, 64))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
