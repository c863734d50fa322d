package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSamples() []Sample {
	return []Sample{
		{Doc: Doc{Question: "q1", Answer: "A", Src: "ori_mmlu-college_biology"}, ExactMatch: 1.0, FilteredResps: []string{"A"}},
		{Doc: Doc{Question: "q2", Answer: "B", Src: "ori_mmlu-college_biology"}, ExactMatch: 0.0, FilteredResps: []string{"D"}},
		{Doc: Doc{Question: "q3", Answer: "C", Src: "stemez-Biology"}, ExactMatch: 0.0, FilteredResps: []string{"A"}},
		{Doc: Doc{Question: "q4", Answer: "E", Src: "stemez-Biology"}, ExactMatch: 0.0, FilteredResps: []string{"B"}},
		{Doc: Doc{Question: "q5", Answer: "F"}, ExactMatch: 0.0, FilteredResps: nil},
		{Doc: Doc{Question: "q6", Answer: "G", Src: "ori_mmlu-college_biology"}, ExactMatch: 1.0, FilteredResps: []string{"G"}},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(testSamples())

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Correct)
	assert.Equal(t, 4, summary.Wrong)
	assert.InDelta(t, 2.0/6.0, summary.Accuracy, 1e-9)

	require.Len(t, summary.WrongBySource, 3)
	assert.Equal(t, SourceCount{Source: "stemez-Biology", Count: 2}, summary.WrongBySource[0])
	// Ties break alphabetically for stable output.
	assert.Equal(t, "ori_mmlu-college_biology", summary.WrongBySource[1].Source)
	assert.Equal(t, "unknown", summary.WrongBySource[2].Source)

	require.Len(t, summary.WrongSamples, 4)
	assert.Equal(t, "q2", summary.WrongSamples[0].Doc.Question)
}

func TestSummarizeCapsWrongSamples(t *testing.T) {
	samples := make([]Sample, 20)
	for i := range samples {
		samples[i] = Sample{Doc: Doc{Src: "src"}, ExactMatch: 0.0}
	}
	summary := Summarize(samples)
	assert.Equal(t, 20, summary.Wrong)
	assert.Len(t, summary.WrongSamples, maxWrongSamples)
}

func TestLoadSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples_mmlu_pro_biology.jsonl")
	file, err := os.Create(path)
	require.NoError(t, err)
	enc := json.NewEncoder(file)
	for _, s := range testSamples() {
		require.NoError(t, enc.Encode(s))
	}
	require.NoError(t, file.Close())

	samples, err := LoadSamples(path)
	require.NoError(t, err)
	assert.Len(t, samples, 6)
	assert.True(t, samples[0].Correct())
	assert.Equal(t, "D", samples[1].ModelAnswer())
	assert.Equal(t, "", samples[4].ModelAnswer())
}

func TestLoadSamplesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := LoadSamples(path)
	assert.Error(t, err)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")
	file, err := os.Create(path)
	require.NoError(t, err)
	enc := json.NewEncoder(file)
	for _, s := range testSamples() {
		require.NoError(t, enc.Encode(s))
	}
	require.NoError(t, file.Close())

	summary, err := Analyze(path)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Total)
}
