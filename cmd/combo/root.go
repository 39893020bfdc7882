package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

// envPrefix is prepended to every flag name to form its environment
// variable, e.g. COMBO_LOG_LEVEL for --log-level.
const envPrefix = "COMBO"

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	logger := logrus.New()

	cmd := &cobra.Command{
		Use:   "combo",
		Short: "Combine outlier scores from multiple detectors",
		Long: `combo merges the score matrix of an ensemble of outlier detectors
(one row per sample, one column per detector) into a single score per sample.

Strategies: average, maximization, median, aom, moa, majority_vote.
Every flag can also be set through a COMBO_* environment variable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		return configureLogger(logger, cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("log-format"))
	}

	cmd.AddCommand(newCombineCommand(v, logger))
	cmd.AddCommand(newRunCommand(v, logger))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// bindFlags makes every flag of the running command readable through v,
// with the flag value taking precedence over the environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

func configureLogger(logger *logrus.Logger, out io.Writer, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(lvl)
	logger.SetOutput(out)

	switch strings.ToLower(format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q: expected text or json", format)
	}
	return nil
}
