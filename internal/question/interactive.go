package question

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// Review session actions.
const (
	actionNext = "Next question"
	actionFlag = "Flag as bad"
	actionQuit = "Quit"
)

// InteractiveSession walks a human reviewer through questions one at a time.
// Flagged question indices are appended to FlagPath as they happen, so an
// interrupted session loses nothing.
type InteractiveSession struct {
	Out      io.Writer
	FlagPath string

	// choose presents the action menu; tests replace it.
	choose func() (string, error)
}

// NewInteractiveSession creates a session writing to stdout and recording
// flags under flagPath.
func NewInteractiveSession(flagPath string) *InteractiveSession {
	s := &InteractiveSession{
		Out:      os.Stdout,
		FlagPath: flagPath,
	}
	s.choose = s.promptAction
	return s
}

// SessionResult reports what happened during a review session. Flagged holds
// 1-based question numbers, matching the flag file.
type SessionResult struct {
	Reviewed int
	Flagged  []int
	Quit     bool
}

// Run displays each question and asks the reviewer what to do with it.
func (s *InteractiveSession) Run(questions []Question) (*SessionResult, error) {
	result := &SessionResult{}

	header := color.New(color.FgCyan, color.Bold)
	meta := color.New(color.Faint)
	answer := color.New(color.FgGreen, color.Bold)

	for i, q := range questions {
		fmt.Fprintln(s.Out)
		header.Fprintf(s.Out, "QUESTION %d of %d\n", i+1, len(questions))
		meta.Fprintf(s.Out, "Category: %s | Subtopic: %s\n", orNA(q.Category), orNA(q.Subtopic))
		fmt.Fprintf(s.Out, "\n%s\n\n%s\n", q.Question, q.FormatOptions())
		answer.Fprintf(s.Out, "\nCORRECT ANSWER: %s\n", q.CorrectAnswer)
		fmt.Fprintf(s.Out, "\nREASONING:\n%s\n", q.Reasoning)

		action, err := s.choose()
		if err != nil {
			return result, fmt.Errorf("prompt failed: %w", err)
		}

		result.Reviewed++

		switch action {
		case actionFlag:
			result.Flagged = append(result.Flagged, i+1)
			if err := s.recordFlag(i + 1); err != nil {
				return result, err
			}
			fmt.Fprintf(s.Out, "  -> Flagged question %d\n", i+1)
		case actionQuit:
			result.Quit = true
			return result, nil
		}
	}

	return result, nil
}

func (s *InteractiveSession) promptAction() (string, error) {
	prompt := promptui.Select{
		Label: "Action",
		Items: []string{actionNext, actionFlag, actionQuit},
	}
	_, choice, err := prompt.Run()
	return choice, err
}

// recordFlag appends a 1-based question number to the flag file.
func (s *InteractiveSession) recordFlag(number int) error {
	if err := os.MkdirAll(filepath.Dir(s.FlagPath), 0755); err != nil {
		return fmt.Errorf("failed to create flag directory: %w", err)
	}
	file, err := os.OpenFile(s.FlagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open flag file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := fmt.Fprintf(file, "%d\n", number); err != nil {
		return fmt.Errorf("failed to record flag: %w", err)
	}
	return file.Close()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
