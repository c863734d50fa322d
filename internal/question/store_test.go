package question

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.jsonl")

	q1 := validQuestion("concept one")
	q1.Review = &Review{Verdict: "PASS", Confidence: "high"}
	q2 := validQuestion("concept two")
	q2.Defense = &Defense{CanDefend: false, Defense: "two answers fit"}

	require.NoError(t, WriteJSONL(path, []Question{q1, q2}))

	loaded, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "concept one", loaded[0].CoreConcept)
	assert.True(t, loaded[0].Review.Passed())
	assert.Nil(t, loaded[0].Defense)
	assert.False(t, loaded[1].Defense.CanDefend)
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestToChatExample(t *testing.T) {
	q := validQuestion("primase primer synthesis")
	q.Category = "molecular_genetics"
	q.Subtopic = "DNA replication fork dynamics"

	example := ToChatExample(q)
	require.Len(t, example.Messages, 2)

	user := example.Messages[0].Content
	assert.Contains(t, user, q.Question)
	assert.Contains(t, user, "C. Primase")

	assistant := example.Messages[1].Content
	assert.Contains(t, assistant, q.Reasoning)
	assert.Contains(t, assistant, "The answer is C.")

	assert.Equal(t, "molecular_genetics", example.Category)
	assert.Equal(t, "DNA replication fork dynamics", example.Subtopic)
}

func TestToChatExampleDefaultsCategory(t *testing.T) {
	example := ToChatExample(validQuestion("c"))
	assert.Equal(t, "genetics", example.Category)
}

func TestWriteChatJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat.jsonl")
	require.NoError(t, WriteChatJSONL(path, []Question{validQuestion("a"), validQuestion("b")}))

	loaded, err := ReadJSONL(path)
	require.NoError(t, err)
	// Chat rows parse as questions with empty fields; just count lines.
	assert.Len(t, loaded, 2)
}
