package question

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bioeval/internal/config"
)

func genConfig(perTopic int) config.GenerationConfig {
	return config.GenerationConfig{
		Model:             "test-model",
		MaxTokens:         2500,
		Temperature:       0.7,
		QuestionsPerTopic: perTopic,
		Workers:           1,
		PacingMillis:      0,
		Topics: map[string][]string{
			"molecular_genetics": {"DNA replication fork dynamics"},
		},
	}
}

func TestGenerateAcceptsValidQuestion(t *testing.T) {
	client := &fakeClient{responses: []string{questionJSON(validQuestion("primase primer synthesis"))}}
	gen := NewGenerator(client, genConfig(1), nil, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)

	q := result.Questions[0]
	assert.Equal(t, "molecular_genetics", q.Category)
	assert.Equal(t, "DNA replication fork dynamics", q.Subtopic)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 0, result.Rejected)
}

func TestGenerateRejectsLowConfidence(t *testing.T) {
	q := validQuestion("weak concept")
	q.Confidence = "medium"
	client := &fakeClient{responses: []string{questionJSON(q)}}
	gen := NewGenerator(client, genConfig(1), nil, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Questions)
	assert.Equal(t, 1, result.Rejected)
}

func TestGenerateRejectsWrongOptionCount(t *testing.T) {
	q := validQuestion("nine options concept")
	delete(q.Options, "J")
	client := &fakeClient{responses: []string{questionJSON(q)}}
	gen := NewGenerator(client, genConfig(1), nil, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Questions)
}

func TestGenerateHandlesCodeFencedOutput(t *testing.T) {
	fenced := "```json\n" + questionJSON(validQuestion("fenced concept")) + "\n```"
	client := &fakeClient{responses: []string{fenced}}
	gen := NewGenerator(client, genConfig(1), nil, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Questions, 1)
}

func TestGenerateRejectsDuplicateConcept(t *testing.T) {
	// Same concept twice: the second must be rejected by the index.
	same := questionJSON(validQuestion("telomerase template region"))
	client := &fakeClient{responses: []string{same, same}}

	idx, err := NewConceptIndex(nil, nil)
	require.NoError(t, err)
	gen := NewGenerator(client, genConfig(2), idx, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Questions, 1)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, idx.Len())
}

func TestGeneratePromptListsCoveredConcepts(t *testing.T) {
	gen := NewGenerator(nil, genConfig(1), nil, nil)
	assert.Equal(t, "- None yet", gen.coveredConcepts())

	gen.trackConcept("histone acetylation activation")
	gen.trackConcept("rho-dependent termination")
	covered := gen.coveredConcepts()
	assert.Contains(t, covered, "- histone acetylation activation")
	assert.Contains(t, covered, "- rho-dependent termination")
}

func TestGenerateSurvivesClientErrors(t *testing.T) {
	client := &fakeClient{errs: []error{assert.AnError}, responses: []string{""}}
	gen := NewGenerator(client, genConfig(1), nil, nil)

	result, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Questions)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, client.callCount())
}
