package harness

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestExitCodeMapping(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("nil error should map to 0, got %d", got)
	}
	if got := ExitCode(errors.New("spawn failed")); got != 1 {
		t.Fatalf("generic error should map to 1, got %d", got)
	}

	// A real child exit carries its own code through.
	err := exec.Command("sh", "-c", "exit 3").Run()
	if err == nil {
		t.Fatal("expected sh to exit non-zero")
	}
	if got := ExitCode(err); got != 3 {
		t.Fatalf("expected exit code 3, got %d", got)
	}
}

func TestFindLatestSamples(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "Qwen__Qwen3-4B-Instruct-2507")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	older := filepath.Join(nested, "samples_mmlu_pro_biology_old.jsonl")
	newer := filepath.Join(nested, "samples_mmlu_pro_biology_new.jsonl")
	other := filepath.Join(nested, "results.json")
	for _, p := range []string{older, newer, other} {
		if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestSamples(dir)
	if err != nil {
		t.Fatalf("FindLatestSamples returned error: %v", err)
	}
	if got != newer {
		t.Fatalf("expected %s, got %s", newer, got)
	}
}

func TestFindLatestSamplesEmptyDir(t *testing.T) {
	if _, err := FindLatestSamples(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without samples")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"first-run", "second-run"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "first-run"), past, past); err != nil {
		t.Fatal(err)
	}

	runs, err := ListRuns(dir)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(runs) != 2 || runs[0] != "second-run" || runs[1] != "first-run" {
		t.Fatalf("unexpected run order: %v", runs)
	}
}

func TestListRunsMissingDir(t *testing.T) {
	runs, err := ListRuns(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing results dir should not error: %v", err)
	}
	if runs != nil {
		t.Fatalf("expected no runs, got %v", runs)
	}
}
