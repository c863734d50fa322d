package question

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadJSONL loads questions from a JSONL file.
func ReadJSONL(path string) ([]Question, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var questions []Question
	decoder := json.NewDecoder(file)
	for {
		var q Question
		if err := decoder.Decode(&q); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// WriteJSONL writes questions to a JSONL file, creating parent directories as
// needed.
func WriteJSONL(path string, questions []Question) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	for _, q := range questions {
		if err := encoder.Encode(q); err != nil {
			return fmt.Errorf("failed to write question: %w", err)
		}
	}
	return file.Close()
}

// ChatExample is the instruction-tuning representation of a question.
type ChatExample struct {
	Messages []ChatMessage `json:"messages"`
	Category string        `json:"category"`
	Subtopic string        `json:"subtopic"`
}

// ChatMessage is one turn of a chat example.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToChatExample converts a question into chat format for training. The
// assistant turn reasons first and states the answer last, matching how the
// benchmark expects answers to be produced.
func ToChatExample(q Question) ChatExample {
	userContent := q.Question + "\n\n" + q.FormatOptions()
	assistantContent := fmt.Sprintf("%s\n\nThe answer is %s.", q.Reasoning, q.CorrectAnswer)

	category := q.Category
	if category == "" {
		category = "genetics"
	}

	return ChatExample{
		Messages: []ChatMessage{
			{Role: "user", Content: userContent},
			{Role: "assistant", Content: assistantContent},
		},
		Category: category,
		Subtopic: q.Subtopic,
	}
}

// WriteChatJSONL converts questions to chat format and writes them as JSONL.
func WriteChatJSONL(path string, questions []Question) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	for _, q := range questions {
		if err := encoder.Encode(ToChatExample(q)); err != nil {
			return fmt.Errorf("failed to write chat example: %w", err)
		}
	}
	return file.Close()
}
