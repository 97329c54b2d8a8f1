package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/specter-ci/specter/internal/pipeline"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "specter",
	Short: "CI orchestrator for the evaluation suite",
	Long: `Specter runs the model evaluation suite on Azure Pipelines agents.
It installs the Python dependencies, generates test data, runs the evaluation,
and attaches the results artifact to the build. Exit codes from the external
steps are propagated verbatim.

Outside CI (TF_BUILD != "True") it is a deliberate no-op.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
	},
}

// Execute runs the CLI and exits the process with the pipeline's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *pipeline.ExitCodeError
		if errors.As(err, &exitErr) {
			// already logged by the pipeline
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)
}
