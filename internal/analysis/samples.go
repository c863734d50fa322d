// Package analysis parses per-sample harness output and summarizes where a
// model goes wrong.
package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Sample is one logged benchmark sample. The harness writes one per question
// when sample logging is enabled.
type Sample struct {
	Doc           Doc      `json:"doc"`
	ExactMatch    float64  `json:"exact_match"`
	FilteredResps []string `json:"filtered_resps"`
}

// Doc is the question document embedded in a sample.
type Doc struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Src      string   `json:"src"`
}

// Correct reports whether the model answered this sample correctly.
func (s Sample) Correct() bool {
	return s.ExactMatch == 1.0
}

// ModelAnswer returns the model's filtered response, if any.
func (s Sample) ModelAnswer() string {
	if len(s.FilteredResps) == 0 {
		return ""
	}
	return s.FilteredResps[0]
}

// SourceCount pairs a question source with how many questions the model got
// wrong from it.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Summary aggregates a samples file into totals, accuracy, and a breakdown of
// wrong answers by question source.
type Summary struct {
	Total         int           `json:"total"`
	Correct       int           `json:"correct"`
	Wrong         int           `json:"wrong"`
	Accuracy      float64       `json:"accuracy"`
	WrongBySource []SourceCount `json:"wrong_by_source"`
	WrongSamples  []Sample      `json:"wrong_samples"`
}

// maxWrongSamples bounds how many wrong answers a summary carries verbatim.
const maxWrongSamples = 5

// LoadSamples reads a harness samples JSONL file.
func LoadSamples(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var samples []Sample
	decoder := json.NewDecoder(file)
	for {
		var s Sample
		if err := decoder.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found in %s", path)
	}
	return samples, nil
}

// Summarize classifies samples and tallies wrong answers by source. Sources
// sort by descending count, ties broken by name so output is stable.
func Summarize(samples []Sample) *Summary {
	summary := &Summary{Total: len(samples)}

	bySource := make(map[string]int)
	for _, s := range samples {
		if s.Correct() {
			summary.Correct++
			continue
		}
		summary.Wrong++
		src := s.Doc.Src
		if src == "" {
			src = "unknown"
		}
		bySource[src]++
		if len(summary.WrongSamples) < maxWrongSamples {
			summary.WrongSamples = append(summary.WrongSamples, s)
		}
	}

	if summary.Total > 0 {
		summary.Accuracy = float64(summary.Correct) / float64(summary.Total)
	}

	for src, count := range bySource {
		summary.WrongBySource = append(summary.WrongBySource, SourceCount{Source: src, Count: count})
	}
	sort.Slice(summary.WrongBySource, func(i, j int) bool {
		a, b := summary.WrongBySource[i], summary.WrongBySource[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Source < b.Source
	})

	return summary
}

// Analyze loads and summarizes a samples file in one step.
func Analyze(path string) (*Summary, error) {
	samples, err := LoadSamples(path)
	if err != nil {
		return nil, err
	}
	return Summarize(samples), nil
}

func truncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
