package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-combo/infrastructure/middleware"
	"github.com/ahrav/go-combo/internal/application"
	"github.com/ahrav/go-combo/internal/combine"
	"github.com/ahrav/go-combo/internal/domain"
)

// strategies maps the names accepted by --strategy to registry unit types.
var strategies = map[string]string{
	"average":       application.TypeAverage,
	"maximization":  application.TypeMaxPool,
	"max_pool":      application.TypeMaxPool,
	"median":        application.TypeMedianPool,
	"median_pool":   application.TypeMedianPool,
	"aom":           application.TypeAOM,
	"moa":           application.TypeMOA,
	"majority_vote": application.TypeMajorityVote,
}

// strategyFlags lists the flags that only some unit types read.
var strategyFlags = map[string][]string{
	"weights":   {application.TypeAverage, application.TypeMajorityVote},
	"buckets":   {application.TypeAOM, application.TypeMOA},
	"method":    {application.TypeAOM, application.TypeMOA},
	"bootstrap": {application.TypeAOM, application.TypeMOA},
	"seed":      {application.TypeAOM, application.TypeMOA},
	"classes":   {application.TypeMajorityVote},
}

// combineResult is the JSON form of a single-strategy run.
type combineResult struct {
	Strategy   string    `json:"strategy"`
	Samples    int       `json:"samples"`
	Estimators int       `json:"estimators"`
	Scores     []float64 `json:"scores"`
}

func newCombineCommand(v *viper.Viper, logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Combine a score matrix with a single strategy",
		Long: `Combine reads a score matrix (CSV or JSON, one row per sample and one
column per detector) and prints one combined score per sample.

For majority_vote the matrix holds discrete labels and the output is the
winning label per sample.`,
		Example: `  combo combine --input scores.csv --strategy aom --buckets 5 --seed 42
  combo combine --input scores.json --strategy average --weights 1,2,1
  cat labels.csv | combo combine --input - --strategy majority_vote --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, v, logger)
		},
	}

	defaults := combine.DefaultBucketOptions()

	cmd.Flags().StringP("input", "i", "", "Score matrix file, or - for stdin (required)")
	cmd.Flags().String("input-format", formatAuto, "Input format (auto, csv, json)")
	cmd.Flags().StringP("strategy", "s", "average", "Combination strategy ("+strings.Join(strategyNames(), ", ")+")")
	cmd.Flags().Int("buckets", defaults.Buckets, "Number of buckets for aom/moa")
	cmd.Flags().String("method", defaults.Method.String(), "Bucket method for aom/moa (static, dynamic)")
	cmd.Flags().Bool("bootstrap", defaults.Bootstrap, "Draw static buckets independently for aom/moa")
	cmd.Flags().Uint64("seed", 0, "Random seed for aom/moa; unset draws from the process generator")
	cmd.Flags().String("weights", "", "Comma separated estimator weights for average/majority_vote")
	cmd.Flags().Int("classes", 2, "Number of classes for majority_vote")
	cmd.Flags().Int("workers", 0, "Row-parallel workers; 0 or 1 runs sequentially")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")

	return cmd
}

func runCombine(cmd *cobra.Command, v *viper.Viper, logger *logrus.Logger) error {
	input := v.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	format, err := outputFormat(v.GetString("format"))
	if err != nil {
		return err
	}

	name, unitType, err := resolveStrategy(v.GetString("strategy"))
	if err != nil {
		return err
	}

	params, err := unitParameters(v, unitType)
	if err != nil {
		return err
	}
	for _, flag := range slices.Sorted(maps.Keys(strategyFlags)) {
		if v.IsSet(flag) && !slices.Contains(strategyFlags[flag], unitType) {
			logger.WithField("strategy", name).Warnf("--%s does not apply to this strategy; ignored", flag)
		}
	}

	scores, err := loadMatrix(input, v.GetString("input-format"), cmd.InOrStdin())
	if err != nil {
		return err
	}

	unit, err := application.NewDefaultUnitRegistry().CreateUnit(unitType, "combined", params)
	if err != nil {
		return err
	}
	instrumented := middleware.Instrument(unit, middleware.WithLogger(logger))

	state := domain.NewState().WithMultiple(map[string]any{
		domain.KeyScores.Name(): scores,
		domain.KeyLabels.Name(): scores,
	})
	out, err := instrumented.Execute(cmd.Context(), state)
	if err != nil {
		return err
	}
	combined, err := domain.MustGet(out, domain.NewKey[domain.CombinedScores](instrumented.OutputKey()))
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), combineResult{
			Strategy:   name,
			Samples:    scores.Samples(),
			Estimators: scores.Estimators(),
			Scores:     combined,
		})
	}
	_, err = cmd.OutOrStdout().Write(formatScores(combined))
	return err
}

// resolveStrategy maps a --strategy value to its canonical name and unit
// type. Matching ignores case and treats '-' and ' ' like '_'.
func resolveStrategy(s string) (name, unitType string, err error) {
	folded := cases.Fold().String(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(folded)
	unitType, ok := strategies[name]
	if !ok {
		return "", "", &domain.UnsupportedStrategyError{
			Kind:       "strategy",
			Value:      s,
			Suggestion: combine.Suggest(s, strategyNames()),
		}
	}
	return name, unitType, nil
}

func strategyNames() []string {
	return slices.Sorted(maps.Keys(strategies))
}

// unitParameters builds the unit configuration map from the flags that
// apply to unitType.
func unitParameters(v *viper.Viper, unitType string) (map[string]any, error) {
	params := make(map[string]any)
	if v.IsSet("workers") {
		params["workers"] = v.GetInt("workers")
	}

	switch unitType {
	case application.TypeAverage, application.TypeMajorityVote:
		weights, err := parseWeights(v.GetString("weights"))
		if err != nil {
			return nil, err
		}
		if weights != nil {
			params["weights"] = []float64(weights)
		}
		if unitType == application.TypeMajorityVote {
			params["classes"] = v.GetInt("classes")
		}
	case application.TypeAOM, application.TypeMOA:
		params["buckets"] = v.GetInt("buckets")
		params["method"] = v.GetString("method")
		params["bootstrap"] = v.GetBool("bootstrap")
		if v.IsSet("seed") {
			params["seed"] = v.GetUint64("seed")
		}
	}
	return params, nil
}

func outputFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "text", formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid --format %q: expected text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
