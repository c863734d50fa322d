package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bioeval/internal/analysis"
	"bioeval/internal/harness"
)

var analyzeSamples string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [OUTPUT_NAME]",
	Short: "Analyze benchmark errors from a run's samples",
	Long: `Classify the logged samples of a benchmark run into correct and wrong
answers, break wrong answers down by question source, and show a few of
the misses. OUTPUT_NAME defaults to the configured baseline run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samplesPath := analyzeSamples
		name := cfg.Harness.DefaultName
		if len(args) > 0 {
			name = args[0]
		}

		if samplesPath == "" {
			runDir := filepath.Join(cfg.Harness.ResultsDir, name)
			found, err := harness.FindLatestSamples(runDir)
			if err != nil {
				return err
			}
			samplesPath = found
		}

		summary, err := analysis.Analyze(samplesPath)
		if err != nil {
			return err
		}

		markdown := analysis.Report(name, summary)
		fmt.Print(analysis.RenderTerminal(markdown, isTTY()))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSamples, "samples", "", "explicit samples JSONL file (overrides run lookup)")
}
