package question

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bioeval/internal/llm"
)

// fakeClient returns scripted responses in order, cycling the last one.
type fakeClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("no scripted response")
	}
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return &llm.CompletionResponse{Content: f.responses[i]}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func validQuestion(concept string) Question {
	q := Question{
		Question:      "Which enzyme synthesizes the RNA primer during replication?",
		Options:       map[string]string{},
		CoreConcept:   concept,
		Reasoning:     "Primase lays down short RNA primers that DNA polymerase extends.",
		CorrectAnswer: "C",
		Confidence:    "high",
	}
	texts := []string{
		"Helicase", "Ligase", "Primase", "Topoisomerase", "Gyrase",
		"Polymerase I", "Polymerase III", "Telomerase", "Exonuclease", "Ribozyme",
	}
	for i, letter := range OptionLetters {
		q.Options[letter] = texts[i]
	}
	return q
}

func questionJSON(q Question) string {
	data, err := json.Marshal(q)
	if err != nil {
		panic(err)
	}
	return string(data)
}
