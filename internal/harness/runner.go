package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"bioeval/internal/logging"
)

// Runner executes harness invocations as foreground child processes.
type Runner struct {
	logger logging.Logger

	// Stdout/Stderr default to the parent's streams; tests override them.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a runner that streams harness output to the terminal.
func NewRunner(logger logging.Logger) *Runner {
	return &Runner{
		logger: logging.OrNop(logger),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the invocation and blocks until it exits. Harness failures are
// returned unmodified: no retries, no error translation. Use ExitCode on the
// returned error to recover the child's exit status.
func (r *Runner) Run(ctx context.Context, inv Invocation) error {
	if err := os.MkdirAll(inv.OutputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", inv.OutputPath, err)
	}

	r.logger.Info("Running harness: %s", strings.Join(inv.CommandLine(), " "))

	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args()...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Stdin = os.Stdin

	return cmd.Run()
}

// ExitCode maps a Run error to a process exit status. A nil error is 0, a
// harness exit is the harness's own code, anything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// FindLatestSamples locates the most recent samples_*.jsonl file beneath a
// results directory. The harness nests output under a per-model directory, so
// the walk is recursive.
func FindLatestSamples(resultsDir string) (string, error) {
	var newest string
	var newestMod int64

	err := filepath.WalkDir(resultsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "samples_") || !strings.HasSuffix(name, ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = path
			newestMod = mod
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan results directory %s: %w", resultsDir, err)
	}
	if newest == "" {
		return "", fmt.Errorf("no samples file found under %s", resultsDir)
	}
	return newest, nil
}

// ListRuns returns the output names present under a results directory, most
// recently modified first.
func ListRuns(resultsDir string) ([]string, error) {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read results directory %s: %w", resultsDir, err)
	}

	type runInfo struct {
		name string
		mod  int64
	}
	var runs []runInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, runInfo{name: entry.Name(), mod: info.ModTime().UnixNano()})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].mod > runs[j].mod })

	names := make([]string, len(runs))
	for i, r := range runs {
		names[i] = r.name
	}
	return names, nil
}
