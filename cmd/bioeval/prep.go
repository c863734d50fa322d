package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"bioeval/internal/dataset"
)

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare MedMCQA training data",
	Long: `Download MedMCQA, filter to the configured subject and topics, convert to
chat format, and write train/eval JSONL splits under the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(bold("Preparing MedMCQA data"))
		fmt.Printf("  Subject: %s\n", cyan(cfg.Dataset.Subject))
		for _, t := range cfg.Dataset.Topics {
			fmt.Printf("  Topic:   %s\n", gray(t))
		}

		loader := dataset.NewLoader(cfg.Dataset.CacheDir, logger)
		rows, err := loader.Load(context.Background(), cfg.Dataset)
		if err != nil {
			return err
		}
		fmt.Printf("\nLoaded %d rows\n", len(rows))

		result, err := dataset.Prep(rows, cfg.Dataset.Subject, cfg.Dataset.Topics, cfg.Dataset.HoldOut, cfg.OutputDir)
		if err != nil {
			return err
		}

		fmt.Printf("\nMatched %d rows:\n", result.Filtered)
		topics := make([]string, 0, len(result.ByTopic))
		for t := range result.ByTopic {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		for _, t := range topics {
			fmt.Printf("  %-45s %d\n", t, result.ByTopic[t])
		}

		if result.TrainPath != "" {
			fmt.Printf("\n%s %d train examples -> %s\n", green("Wrote"), result.TrainCount, result.TrainPath)
		}
		fmt.Printf("%s %d eval examples  -> %s\n", green("Wrote"), result.EvalCount, result.EvalPath)
		return nil
	},
}
