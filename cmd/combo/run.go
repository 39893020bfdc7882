package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-combo/infrastructure/middleware"
	"github.com/ahrav/go-combo/internal/application"
	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

// runResult is the JSON form of a plan run.
type runResult struct {
	Plan        string               `json:"plan"`
	ExecutionID string               `json:"execution_id"`
	Outputs     map[string][]float64 `json:"outputs"`
}

func newRunCommand(v *viper.Viper, logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a combination plan over a score matrix",
		Long: `Run loads a YAML combination plan, runs its stages over the score
matrix, and prints the output of every unit the stages ran.

Units read the matrix from "scores" by default; majority_vote units read
"labels", which --labels fills.`,
		Example: `  combo run --plan plan.yaml --input scores.json
  combo run --plan plan.yaml --input scores.csv --labels labels.csv --format json
  combo run --plan plan.yaml --input scores.csv --metrics-file combo.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, v, logger)
		},
	}

	cmd.Flags().StringP("plan", "p", "", "Plan file (required)")
	cmd.Flags().StringP("input", "i", "", "Score matrix file, or - for stdin (required)")
	cmd.Flags().String("labels", "", "Label matrix file for majority_vote units")
	cmd.Flags().String("input-format", formatAuto, "Input format (auto, csv, json)")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this file")

	return cmd
}

func runPlan(cmd *cobra.Command, v *viper.Viper, logger *logrus.Logger) error {
	planPath, input := v.GetString("plan"), v.GetString("input")
	if planPath == "" {
		return fmt.Errorf("--plan is required")
	}
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	labelsPath := v.GetString("labels")
	if input == "-" && labelsPath == "-" {
		return fmt.Errorf("--input and --labels cannot both read stdin")
	}
	format, err := outputFormat(v.GetString("format"))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	loader, err := application.NewPlanLoader(nil, application.WithInstrumentation(
		middleware.WithMetrics(middleware.NewPrometheusMetricsWith(reg)),
		middleware.WithLogger(logger),
	))
	if err != nil {
		return err
	}

	plan, err := loader.LoadFromFile(cmd.Context(), planPath)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"plan": plan.Name(), "hash": plan.Hash()}).Info("plan loaded")

	inputFormat := v.GetString("input-format")
	scores, err := loadMatrix(input, inputFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}
	state := domain.With(domain.NewState(), domain.KeyScores, scores)

	if labelsPath != "" {
		labels, err := loadMatrix(labelsPath, inputFormat, cmd.InOrStdin())
		if err != nil {
			return err
		}
		state = domain.With(state, domain.KeyLabels, labels)
	}

	out, err := plan.Execute(cmd.Context(), state)
	if err != nil {
		return err
	}

	if path := v.GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return ports.NewMetricsError(path, "WriteToTextfile", err)
		}
	}

	keys := uniqueOutputs(plan.Outputs())
	outputs := make(map[string][]float64, len(keys))
	for _, key := range keys {
		combined, err := domain.MustGet(out, domain.NewKey[domain.CombinedScores](key))
		if err != nil {
			return err
		}
		outputs[key] = combined
	}

	if format == formatJSON {
		ec, _ := out.GetExecutionContext()
		return writeJSON(cmd.OutOrStdout(), runResult{
			Plan:        plan.Name(),
			ExecutionID: ec.ExecutionID,
			Outputs:     outputs,
		})
	}

	w := cmd.OutOrStdout()
	for _, key := range keys {
		values := make([]string, len(outputs[key]))
		for i, s := range outputs[key] {
			values[i] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// uniqueOutputs drops repeated keys, keeping first-seen order.
func uniqueOutputs(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
