// Package harness builds and runs invocations of the external lm_eval
// benchmark harness. The harness owns model loading and scoring; this package
// only assembles the command line and hands the process its terminal.
package harness

import (
	"path/filepath"
	"strconv"

	"bioeval/internal/config"
)

// Invocation is one fully-resolved harness run.
type Invocation struct {
	Binary     string
	Model      string
	OutputName string
	Task       string
	NumFewshot int
	BatchSize  string
	OutputPath string
	LogSamples bool
}

// NewInvocation resolves model and output name against the configured
// defaults. Empty arguments fall back to the defaults verbatim.
func NewInvocation(cfg config.HarnessConfig, model, outputName string) Invocation {
	if model == "" {
		model = cfg.DefaultModel
	}
	if outputName == "" {
		outputName = cfg.DefaultName
	}

	return Invocation{
		Binary:     cfg.Binary,
		Model:      model,
		OutputName: outputName,
		Task:       cfg.Task,
		NumFewshot: cfg.NumFewshot,
		BatchSize:  cfg.BatchSize,
		OutputPath: filepath.Join(cfg.ResultsDir, outputName),
		LogSamples: cfg.LogSamples,
	}
}

// Args returns the argv passed to the harness binary, excluding the binary
// itself. Flag order is fixed so runs are reproducible and diffable.
func (inv Invocation) Args() []string {
	args := []string{
		"--model", "hf",
		"--model_args", "pretrained=" + inv.Model,
		"--tasks", inv.Task,
		"--num_fewshot", strconv.Itoa(inv.NumFewshot),
		"--batch_size", inv.BatchSize,
		"--output_path", inv.OutputPath,
	}
	if inv.LogSamples {
		args = append(args, "--log_samples")
	}
	return args
}

// CommandLine returns the full command line including the binary name,
// suitable for display.
func (inv Invocation) CommandLine() []string {
	return append([]string{inv.Binary}, inv.Args()...)
}

