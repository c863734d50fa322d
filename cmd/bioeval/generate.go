package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bioeval/internal/config"
	"bioeval/internal/llm"
	"bioeval/internal/question"
)

var (
	genOutput  string
	genNoDedup bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic exam questions",
	Long: `Generate chain-of-thought multiple-choice questions for the configured
topics. Only high-confidence questions with a full ten-option set are
kept; duplicate core concepts are rejected. Raw questions and a
chat-format training file are written to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := cfg.API.APIKey()
		if apiKey == "" {
			return fmt.Errorf("API key not set (export %s)", cfg.API.APIKeyEnv)
		}

		client := llm.NewClient(llm.Config{
			BaseURL:    cfg.API.BaseURL,
			APIKey:     apiKey,
			Timeout:    time.Duration(cfg.API.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.API.MaxRetries,
			Logger:     logger,
		})

		var dedup *question.ConceptIndex
		if !genNoDedup {
			embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
				Model:   cfg.API.EmbeddingModel,
				APIKey:  apiKey,
				BaseURL: cfg.API.BaseURL,
			})
			if err != nil {
				return err
			}
			dedup, err = question.NewConceptIndex(embedder, logger)
			if err != nil {
				return err
			}
		}

		topicCount := 0
		for _, topics := range cfg.Generation.Topics {
			topicCount += len(topics)
		}
		fmt.Println(bold("Generating questions"))
		fmt.Printf("  Model:  %s\n", cyan(cfg.Generation.Model))
		fmt.Printf("  Target: %d topics x %d questions\n\n", topicCount, cfg.Generation.QuestionsPerTopic)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gen := question.NewGenerator(client, cfg.Generation, dedup, logger)
		result, err := gen.Generate(ctx)
		if err != nil {
			return err
		}
		if len(result.Questions) == 0 {
			return fmt.Errorf("no questions were generated successfully")
		}

		qaPath := filepath.Join(cfg.OutputDir, genOutput)
		chatPath := chatPathFor(qaPath)
		if err := question.WriteJSONL(qaPath, result.Questions); err != nil {
			return err
		}
		if err := question.WriteChatJSONL(chatPath, result.Questions); err != nil {
			return err
		}

		fmt.Printf("\n%s %d/%d questions accepted\n", green("Done:"), len(result.Questions), result.Attempted)
		fmt.Printf("  Raw:  %s\n", qaPath)
		fmt.Printf("  Chat: %s\n", chatPath)
		return nil
	},
}

// chatPathFor derives the chat-format filename from the raw output filename.
func chatPathFor(qaPath string) string {
	ext := filepath.Ext(qaPath)
	return qaPath[:len(qaPath)-len(ext)] + "_chat" + ext
}

func init() {
	generateCmd.Flags().StringVar(&genOutput, "output", config.DefaultQuestionsFile, "raw questions output filename")
	generateCmd.Flags().BoolVar(&genNoDedup, "no-dedup", false, "disable embedding-based concept deduplication")
}
