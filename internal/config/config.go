package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for all bioeval commands.
type Config struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	Harness    HarnessConfig    `yaml:"harness" json:"harness"`
	API        APIConfig        `yaml:"api" json:"api"`
	Dataset    DatasetConfig    `yaml:"dataset" json:"dataset"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Review     ReviewConfig     `yaml:"review" json:"review"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// HarnessConfig configures the external lm_eval invocation.
type HarnessConfig struct {
	Binary       string `yaml:"binary" json:"binary"`
	DefaultModel string `yaml:"default_model" json:"default_model"`
	DefaultName  string `yaml:"default_name" json:"default_name"`
	Task         string `yaml:"task" json:"task"`
	NumFewshot   int    `yaml:"num_fewshot" json:"num_fewshot"`
	BatchSize    string `yaml:"batch_size" json:"batch_size"`
	ResultsDir   string `yaml:"results_dir" json:"results_dir"`
	LogSamples   bool   `yaml:"log_samples" json:"log_samples"`
}

// APIConfig configures the OpenAI-compatible API used for generation and review.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env" json:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
	EmbeddingModel string `yaml:"embedding_model" json:"embedding_model"`
}

// DatasetConfig configures MedMCQA acquisition and filtering.
type DatasetConfig struct {
	Source    string   `yaml:"source" json:"source"` // "huggingface" or "file"
	HFDataset string   `yaml:"hf_dataset" json:"hf_dataset"`
	Split     string   `yaml:"split" json:"split"`
	FilePath  string   `yaml:"file_path" json:"file_path"`
	Subject   string   `yaml:"subject" json:"subject"`
	Topics    []string `yaml:"topics" json:"topics"`
	HoldOut   int      `yaml:"hold_out" json:"hold_out"`
	CacheDir  string   `yaml:"cache_dir" json:"cache_dir"`
	PageSize  int      `yaml:"page_size" json:"page_size"`
}

// GenerationConfig configures synthetic question generation.
type GenerationConfig struct {
	Model             string              `yaml:"model" json:"model"`
	MaxTokens         int                 `yaml:"max_tokens" json:"max_tokens"`
	Temperature       float64             `yaml:"temperature" json:"temperature"`
	QuestionsPerTopic int                 `yaml:"questions_per_topic" json:"questions_per_topic"`
	Workers           int                 `yaml:"workers" json:"workers"`
	PacingMillis      int                 `yaml:"pacing_millis" json:"pacing_millis"`
	Topics            map[string][]string `yaml:"topics" json:"topics"`
}

// ReviewConfig configures automated question review and defense.
type ReviewConfig struct {
	Model       string  `yaml:"model" json:"model"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	Environment    string   `yaml:"environment" json:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// DefaultTopics is the rebalanced molecular genetics topic list used for
// synthetic question generation. Consolidated to avoid overlap between
// DNA, RNA and gene-regulation angles.
func DefaultTopics() map[string][]string {
	return map[string][]string{
		"molecular_genetics": {
			"DNA replication fork dynamics and coordination of enzymes",
			"DNA damage recognition and repair pathway selection",
			"Telomere maintenance and consequences of telomerase dysfunction",
			"Regulation of gene expression from transcription through translation",
			"Ribosome assembly and translation quality control mechanisms",
			"Post-translational modifications and protein targeting",
			"Chromatin remodeling and epigenetic inheritance",
			"Transcription factor interactions and combinatorial gene regulation",
			"Prokaryotic vs eukaryotic gene expression control points",
			"Experimental techniques for studying gene expression (PCR, blotting, sequencing)",
		},
	}
}

// MedMCQATopics is the fixed topic filter applied during data preparation.
func MedMCQATopics() []string {
	return []string{
		"Molecular Genetics",
		"Transcription",
		"Metabolism of nucleic acids",
		"Techniques in molecular biology",
	}
}

// Default filenames for the question pipeline.
const (
	DefaultQuestionsFile = "v4_genetics_qa.jsonl"
	DefaultFlagFile      = "flagged_questions.txt"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir: "./genetics_training_data",
		Harness: HarnessConfig{
			Binary:       "lm_eval",
			DefaultModel: "Qwen/Qwen3-4B-Instruct-2507",
			DefaultName:  "qwen3-4b-baseline",
			Task:         "mmlu_pro_biology",
			NumFewshot:   5,
			BatchSize:    "auto",
			ResultsDir:   "results",
			LogSamples:   true,
		},
		API: APIConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			APIKeyEnv:      "OPENROUTER_API_KEY",
			TimeoutSeconds: 90,
			MaxRetries:     3,
		},
		Dataset: DatasetConfig{
			Source:    "huggingface",
			HFDataset: "openlifescienceai/medmcqa",
			Split:     "train",
			Subject:   "Biochemistry",
			Topics:    MedMCQATopics(),
			HoldOut:   50,
			PageSize:  100,
		},
		Generation: GenerationConfig{
			Model:             "anthropic/claude-sonnet-4",
			MaxTokens:         2500,
			Temperature:       0.7,
			QuestionsPerTopic: 2,
			Workers:           1,
			PacingMillis:      1000,
			Topics:            DefaultTopics(),
		},
		Review: ReviewConfig{
			Model:       "anthropic/claude-opus-4",
			MaxTokens:   600,
			Temperature: 0.3,
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			Environment: "development",
		},
	}
}

// Load reads configuration from a YAML file (optional), applies environment
// overrides and validates the result. A missing path yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Resolve finds a config file in the conventional locations when no explicit
// path is given.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	candidates := []string{
		"configs/bioeval.yaml",
		"bioeval.yaml",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return Load(c)
		}
	}
	return Load("")
}

// Save writes configuration to a YAML file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// APIKey resolves the API key from the configured environment variable.
func (a APIConfig) APIKey() string {
	if a.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(a.APIKeyEnv)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BIOEVAL_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("BIOEVAL_HARNESS_BINARY"); v != "" {
		cfg.Harness.Binary = v
	}
	if v := os.Getenv("BIOEVAL_MODEL"); v != "" {
		cfg.Harness.DefaultModel = v
	}
	if v := os.Getenv("BIOEVAL_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("BIOEVAL_GEN_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := os.Getenv("BIOEVAL_REVIEW_MODEL"); v != "" {
		cfg.Review.Model = v
	}
	if v := os.Getenv("BIOEVAL_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			cfg.Generation.Workers = workers
		}
	}
	if v := os.Getenv("BIOEVAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}

// Validate checks a configuration and fills in defaults for zero values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.Harness.Binary == "" {
		cfg.Harness.Binary = "lm_eval"
	}
	if cfg.Harness.Task == "" {
		return fmt.Errorf("harness.task is required")
	}
	if cfg.Harness.NumFewshot < 0 {
		return fmt.Errorf("harness.num_fewshot cannot be negative")
	}
	if cfg.Harness.BatchSize == "" {
		cfg.Harness.BatchSize = "auto"
	}
	if cfg.Harness.ResultsDir == "" {
		cfg.Harness.ResultsDir = "results"
	}
	if cfg.Harness.DefaultModel == "" {
		return fmt.Errorf("harness.default_model is required")
	}
	if cfg.Harness.DefaultName == "" {
		return fmt.Errorf("harness.default_name is required")
	}

	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2")
	}
	if cfg.Generation.QuestionsPerTopic <= 0 {
		cfg.Generation.QuestionsPerTopic = 2
	}
	if cfg.Generation.Workers <= 0 {
		cfg.Generation.Workers = 1
	}
	if cfg.Generation.Workers > 20 {
		return fmt.Errorf("generation.workers cannot exceed 20")
	}
	if len(cfg.Generation.Topics) == 0 {
		cfg.Generation.Topics = DefaultTopics()
	}

	if cfg.Review.Temperature < 0 || cfg.Review.Temperature > 2 {
		return fmt.Errorf("review.temperature must be between 0 and 2")
	}
	if cfg.Review.MaxTokens <= 0 {
		cfg.Review.MaxTokens = 600
	}

	switch cfg.Dataset.Source {
	case "huggingface":
		if cfg.Dataset.HFDataset == "" {
			return fmt.Errorf("dataset.hf_dataset is required for huggingface source")
		}
		if cfg.Dataset.Split == "" {
			cfg.Dataset.Split = "train"
		}
	case "file":
		if cfg.Dataset.FilePath == "" {
			return fmt.Errorf("dataset.file_path is required for file source")
		}
	default:
		return fmt.Errorf("unsupported dataset source: %s", cfg.Dataset.Source)
	}
	if cfg.Dataset.PageSize <= 0 {
		cfg.Dataset.PageSize = 100
	}
	if cfg.Dataset.HoldOut < 0 {
		return fmt.Errorf("dataset.hold_out cannot be negative")
	}
	if cfg.Dataset.CacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Dataset.CacheDir = filepath.Join(home, ".bioeval", "datasets")
		} else {
			cfg.Dataset.CacheDir = ".bioeval-cache"
		}
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "./genetics_training_data"
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}

	return nil
}
