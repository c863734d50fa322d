package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChatMessage is one turn of a chat-format training example.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one chat-format training record.
type Example struct {
	Messages []ChatMessage `json:"messages"`
}

// minExplanationLen filters out placeholder explanations like "Ans. A".
const minExplanationLen = 10

// ToExample converts one MedMCQA row into a chat-format training example.
// The assistant turn leads with the dataset explanation when it carries real
// content, then states the answer letter and option text.
func ToExample(row Row) Example {
	opts := row.Options()
	userContent := fmt.Sprintf("%s\n\nA. %s\nB. %s\nC. %s\nD. %s",
		row.Question, opts[0], opts[1], opts[2], opts[3])

	answer := fmt.Sprintf("The answer is %s. %s", row.AnswerLetter(), row.AnswerText())
	if exp := row.Explanation; len(exp) > minExplanationLen {
		answer = exp + "\n\n" + answer
	}

	return Example{
		Messages: []ChatMessage{
			{Role: "user", Content: userContent},
			{Role: "assistant", Content: answer},
		},
	}
}

// Split divides rows into a training set and a held-out evaluation set. The
// last holdOut rows form the eval set; with fewer rows than holdOut,
// everything lands in eval.
func Split(rows []Row, holdOut int) (train, eval []Row) {
	if holdOut <= 0 || holdOut >= len(rows) {
		return nil, rows
	}
	cut := len(rows) - holdOut
	return rows[:cut], rows[cut:]
}

// WriteExamples converts rows to chat format and writes them as JSONL.
func WriteExamples(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	for _, row := range rows {
		if err := encoder.Encode(ToExample(row)); err != nil {
			return fmt.Errorf("failed to write example: %w", err)
		}
	}

	return file.Close()
}

// PrepResult summarizes a completed data prep.
type PrepResult struct {
	TotalFetched int
	Filtered     int
	TrainCount   int
	EvalCount    int
	ByTopic      map[string]int
	TrainPath    string
	EvalPath     string
}

// Prep filters rows, splits them, and writes train/eval JSONL files under
// outputDir.
func Prep(rows []Row, subject string, topics []string, holdOut int, outputDir string) (*PrepResult, error) {
	filtered := Filter(rows, subject, topics)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no rows matched subject %q with the configured topics", subject)
	}

	train, eval := Split(filtered, holdOut)

	trainPath := filepath.Join(outputDir, "train.jsonl")
	evalPath := filepath.Join(outputDir, "eval.jsonl")

	if len(train) > 0 {
		if err := WriteExamples(trainPath, train); err != nil {
			return nil, err
		}
	} else {
		trainPath = ""
	}
	if err := WriteExamples(evalPath, eval); err != nil {
		return nil, err
	}

	return &PrepResult{
		TotalFetched: len(rows),
		Filtered:     len(filtered),
		TrainCount:   len(train),
		EvalCount:    len(eval),
		ByTopic:      CountByTopic(filtered),
		TrainPath:    trainPath,
		EvalPath:     evalPath,
	}, nil
}
