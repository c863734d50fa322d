package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	if cfg.Harness.Binary != "lm_eval" {
		t.Fatalf("expected lm_eval binary, got %s", cfg.Harness.Binary)
	}
	if cfg.Harness.Task != "mmlu_pro_biology" {
		t.Fatalf("expected mmlu_pro_biology task, got %s", cfg.Harness.Task)
	}
	if cfg.Harness.NumFewshot != 5 {
		t.Fatalf("expected 5-shot default, got %d", cfg.Harness.NumFewshot)
	}
	if cfg.Harness.BatchSize != "auto" {
		t.Fatalf("expected auto batch size, got %s", cfg.Harness.BatchSize)
	}
	if !cfg.Harness.LogSamples {
		t.Fatal("expected sample logging on by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BIOEVAL_OUTPUT_DIR", "/tmp/bioeval-out")
	t.Setenv("BIOEVAL_MODEL", "my-org/my-model")
	t.Setenv("BIOEVAL_WORKERS", "4")
	t.Setenv("BIOEVAL_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.OutputDir != "/tmp/bioeval-out" {
		t.Fatalf("expected output dir override, got %s", cfg.OutputDir)
	}
	if cfg.Harness.DefaultModel != "my-org/my-model" {
		t.Fatalf("expected model override, got %s", cfg.Harness.DefaultModel)
	}
	if cfg.Generation.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Generation.Workers)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
}

func TestEnvOverrideIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("BIOEVAL_WORKERS", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Generation.Workers != 1 {
		t.Fatalf("expected default worker count, got %d", cfg.Generation.Workers)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bioeval.yaml")
	content := `
harness:
  default_model: other/model
  num_fewshot: 3
generation:
  questions_per_topic: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Harness.DefaultModel != "other/model" {
		t.Fatalf("expected model from file, got %s", cfg.Harness.DefaultModel)
	}
	if cfg.Harness.NumFewshot != 3 {
		t.Fatalf("expected few-shot from file, got %d", cfg.Harness.NumFewshot)
	}
	if cfg.Generation.QuestionsPerTopic != 5 {
		t.Fatalf("expected questions per topic from file, got %d", cfg.Generation.QuestionsPerTopic)
	}
	// Untouched fields keep defaults.
	if cfg.Harness.Task != "mmlu_pro_biology" {
		t.Fatalf("expected default task, got %s", cfg.Harness.Task)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing task", func(c *Config) { c.Harness.Task = "" }},
		{"missing default model", func(c *Config) { c.Harness.DefaultModel = "" }},
		{"negative fewshot", func(c *Config) { c.Harness.NumFewshot = -1 }},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }},
		{"too many workers", func(c *Config) { c.Generation.Workers = 21 }},
		{"bad dataset source", func(c *Config) { c.Dataset.Source = "ftp" }},
		{"file source without path", func(c *Config) { c.Dataset.Source = "file"; c.Dataset.FilePath = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "bioeval.yaml")

	cfg := Default()
	cfg.Harness.DefaultName = "custom-run"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Harness.DefaultName != "custom-run" {
		t.Fatalf("expected custom-run, got %s", loaded.Harness.DefaultName)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	cfg := Default()
	if got := cfg.API.APIKey(); got != "sk-test" {
		t.Fatalf("expected key from env, got %q", got)
	}
}
