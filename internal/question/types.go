// Package question implements the synthetic question pipeline: generation of
// chain-of-thought multiple-choice questions, model-based review and defense
// passes, and interactive human review.
package question

import (
	"fmt"
	"sort"
	"strings"
)

// OptionLetters lists the ten option keys in display order.
var OptionLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// Question is one generated multiple-choice question with its provenance and
// review annotations.
type Question struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CoreConcept   string            `json:"core_concept,omitempty"`
	Reasoning     string            `json:"reasoning"`
	CorrectAnswer string            `json:"correct_answer"`
	Confidence    string            `json:"confidence"`
	Topic         string            `json:"topic,omitempty"`
	Category      string            `json:"category,omitempty"`
	Subtopic      string            `json:"subtopic,omitempty"`

	Review  *Review  `json:"review,omitempty"`
	Defense *Defense `json:"defense,omitempty"`
}

// Review is a reviewer model's verdict on a question.
type Review struct {
	Verdict    string   `json:"verdict"` // "PASS" or "FLAG"
	Confidence string   `json:"confidence,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Passed reports whether the review verdict is PASS.
func (r *Review) Passed() bool {
	return r != nil && r.Verdict == "PASS"
}

// Defense is a reviewer model's attempt to defend a question as sound.
type Defense struct {
	CanDefend  bool     `json:"can_defend"`
	Defense    string   `json:"defense"`
	WeakPoints []string `json:"weak_points,omitempty"`
}

// Validate checks that a freshly generated question is acceptable: all
// required fields present, exactly ten options keyed A-J, the stated answer
// among them, and high confidence.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("missing question text")
	}
	if strings.TrimSpace(q.Reasoning) == "" {
		return fmt.Errorf("missing reasoning")
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("missing correct answer")
	}
	if strings.TrimSpace(q.Confidence) == "" {
		return fmt.Errorf("missing confidence")
	}

	if len(q.Options) != len(OptionLetters) {
		return fmt.Errorf("expected %d options, got %d", len(OptionLetters), len(q.Options))
	}
	for _, letter := range OptionLetters {
		if _, ok := q.Options[letter]; !ok {
			return fmt.Errorf("missing option %s", letter)
		}
	}

	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct answer %q is not an option letter", q.CorrectAnswer)
	}

	if !strings.EqualFold(q.Confidence, "high") {
		return fmt.Errorf("confidence is %q, only high-confidence questions are accepted", q.Confidence)
	}

	return nil
}

// FormatOptions renders the options one per line as "A. text", in letter
// order. Unknown keys sort after the standard letters.
func (q *Question) FormatOptions() string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s. %s", k, q.Options[k]))
	}
	return strings.Join(lines, "\n")
}
