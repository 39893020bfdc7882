package combine

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-combo/internal/domain"
)

// Mode selects the AOM/MOA duality: which reduction runs inside a bucket and
// which runs across buckets.
type Mode int

// Supported bucket modes. The zero value is deliberately invalid.
const (
	// AverageOfMax takes the max inside each bucket and averages across buckets.
	AverageOfMax Mode = iota + 1
	// MaxOfAverage takes the mean inside each bucket and the max across buckets.
	MaxOfAverage
)

// String returns the short name of the mode.
func (m Mode) String() string {
	switch m {
	case AverageOfMax:
		return "aom"
	case MaxOfAverage:
		return "moa"
	default:
		return "unknown"
	}
}

func (m Mode) valid() bool { return m == AverageOfMax || m == MaxOfAverage }

// Method selects how bucket membership and sizes are drawn.
type Method int

// Supported bucket methods. Static is the zero value and the default.
const (
	// Static uses equal bucket sizes of n_estimators / n_buckets.
	Static Method = iota
	// Dynamic draws every bucket's size at random.
	Dynamic
)

// String returns the configuration name of the method.
func (m Method) String() string {
	switch m {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

func (m Method) valid() bool { return m == Static || m == Dynamic }

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, &domain.UnsupportedStrategyError{Kind: "method", Value: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so methods can be read
// straight from YAML or JSON configuration.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var (
	modeNames = map[string]Mode{
		"aom":            AverageOfMax,
		"average_of_max": AverageOfMax,
		"moa":            MaxOfAverage,
		"max_of_average": MaxOfAverage,
	}
	methodNames = map[string]Method{
		"static":  Static,
		"dynamic": Dynamic,
	}
)

// ParseMode parses a mode name. Matching ignores case, surrounding space,
// and treats '-' and ' ' like '_'.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[normalizeName(s)]; ok {
		return m, nil
	}
	return 0, unsupported("mode", s, mapKeys(modeNames))
}

// ParseMethod parses a bucket method name with the same rules as ParseMode.
func ParseMethod(s string) (Method, error) {
	if m, ok := methodNames[normalizeName(s)]; ok {
		return m, nil
	}
	return 0, unsupported("method", s, mapKeys(methodNames))
}

// normalizeName case-folds s and canonicalizes separators. A fresh Caser is
// used per call because Casers are not safe for concurrent use.
func normalizeName(s string) string {
	folded := cases.Fold().String(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(folded)
}

// unsupported builds an UnsupportedStrategyError, suggesting the closest of
// candidates when it is within a third of the input's length in edits.
func unsupported(kind, value string, candidates []string) error {
	return &domain.UnsupportedStrategyError{
		Kind:       kind,
		Value:      value,
		Suggestion: Suggest(value, candidates),
	}
}

// Suggest returns the candidate with the smallest edit distance to value,
// or "" when nothing is close. Ties go to the lexically smaller candidate.
func Suggest(value string, candidates []string) string {
	norm := normalizeName(value)
	if norm == "" {
		return ""
	}
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(norm, c)
		if bestDist < 0 || d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	limit := max(2, len(norm)/3)
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
