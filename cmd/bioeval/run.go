package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"bioeval/internal/harness"
)

var runCmd = &cobra.Command{
	Use:   "run [MODEL] [OUTPUT_NAME]",
	Short: "Run the benchmark through the lm_eval harness",
	Long: `Run the MMLU-Pro Biology benchmark against a Hugging Face model.

MODEL defaults to the configured baseline model and OUTPUT_NAME to the
configured baseline run name. The harness owns model loading, batching,
and scoring; its exit code becomes this command's exit code.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var model, outputName string
		if len(args) > 0 {
			model = args[0]
		}
		if len(args) > 1 {
			outputName = args[1]
		}

		inv := harness.NewInvocation(cfg.Harness, model, outputName)

		fmt.Println(bold("Benchmark run"))
		fmt.Printf("  Model:  %s\n", cyan(inv.Model))
		fmt.Printf("  Output: %s\n", cyan(inv.OutputPath))
		fmt.Printf("  %s\n\n", gray(strings.Join(inv.CommandLine(), " ")))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := harness.NewRunner(logger)
		err := runner.Run(ctx, inv)
		if code := harness.ExitCode(err); code != 0 {
			fmt.Fprintln(os.Stderr, red(fmt.Sprintf("Harness exited with code %d", code)))
			return &exitCodeError{code: code}
		}

		fmt.Println(green("\nRun complete. Results under " + inv.OutputPath))
		return nil
	},
}
