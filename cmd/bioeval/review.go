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

var reviewInput string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review generated questions",
}

var reviewAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Model-based accuracy review",
	Long: `Send each question to the reviewer model, which checks for multiple
defensible answers, factual errors, self-contradicting reasoning, and
ambiguity. Passing questions go to passed.jsonl, the rest to
needs_review.jsonl. A failed review call flags the question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, reviewer, err := loadReviewInputs()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s %d questions with %s\n\n", bold("Reviewing"), len(questions), cyan(cfg.Review.Model))
		outcome, err := reviewer.ReviewAll(ctx, questions)
		if err != nil {
			return err
		}

		passedPath := filepath.Join(cfg.OutputDir, "passed.jsonl")
		flaggedPath := filepath.Join(cfg.OutputDir, "needs_review.jsonl")
		if err := question.WriteJSONL(passedPath, outcome.Passed); err != nil {
			return err
		}
		if err := question.WriteJSONL(flaggedPath, outcome.Flagged); err != nil {
			return err
		}

		fmt.Printf("%s %d passed -> %s\n", green("Done:"), len(outcome.Passed), passedPath)
		fmt.Printf("      %d flagged -> %s\n", len(outcome.Flagged), flaggedPath)
		return nil
	},
}

var reviewDefendCmd = &cobra.Command{
	Use:   "defend",
	Short: "Defense-based review",
	Long: `Instead of hunting for problems, ask the reviewer model to DEFEND each
question as exam-worthy. Questions it cannot confidently defend are
flagged for human review.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, reviewer, err := loadReviewInputs()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s %d questions with %s\n\n", bold("Defending"), len(questions), cyan(cfg.Review.Model))
		outcome, err := reviewer.DefendAll(ctx, questions)
		if err != nil {
			return err
		}

		defendedPath := filepath.Join(cfg.OutputDir, "defended.jsonl")
		cantPath := filepath.Join(cfg.OutputDir, "cant_defend.jsonl")
		if err := question.WriteJSONL(defendedPath, outcome.Defended); err != nil {
			return err
		}
		if err := question.WriteJSONL(cantPath, outcome.CantDefend); err != nil {
			return err
		}

		fmt.Printf("%s %d defended -> %s\n", green("Done:"), len(outcome.Defended), defendedPath)
		fmt.Printf("      %d flagged -> %s\n", len(outcome.CantDefend), cantPath)
		return nil
	},
}

var reviewInteractiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Step through questions by hand",
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := question.ReadJSONL(reviewInputPath())
		if err != nil {
			return err
		}

		session := question.NewInteractiveSession(filepath.Join(cfg.OutputDir, config.DefaultFlagFile))
		result, err := session.Run(questions)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s reviewed %d, flagged %d\n", green("Session:"), result.Reviewed, len(result.Flagged))
		return nil
	},
}

func reviewInputPath() string {
	if reviewInput != "" {
		return reviewInput
	}
	return filepath.Join(cfg.OutputDir, config.DefaultQuestionsFile)
}

func loadReviewInputs() ([]question.Question, *question.Reviewer, error) {
	questions, err := question.ReadJSONL(reviewInputPath())
	if err != nil {
		return nil, nil, err
	}

	apiKey := cfg.API.APIKey()
	if apiKey == "" {
		return nil, nil, fmt.Errorf("API key not set (export %s)", cfg.API.APIKeyEnv)
	}

	client := llm.NewClient(llm.Config{
		BaseURL:    cfg.API.BaseURL,
		APIKey:     apiKey,
		Timeout:    time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.API.MaxRetries,
		Logger:     logger,
	})

	return questions, question.NewReviewer(client, cfg.Review, logger), nil
}

func init() {
	reviewCmd.PersistentFlags().StringVar(&reviewInput, "input", "", "questions JSONL file (default: generated output)")
	reviewCmd.AddCommand(reviewAutoCmd)
	reviewCmd.AddCommand(reviewDefendCmd)
	reviewCmd.AddCommand(reviewInteractiveCmd)
}
