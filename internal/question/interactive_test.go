package question

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedSession(t *testing.T, actions []string) (*InteractiveSession, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewInteractiveSession(filepath.Join(t.TempDir(), "flagged.txt"))
	s.Out = &out

	i := 0
	s.choose = func() (string, error) {
		action := actions[i]
		i++
		return action, nil
	}
	return s, &out
}

func TestSessionFlagsAndAdvances(t *testing.T) {
	questions := []Question{validQuestion("a"), validQuestion("b"), validQuestion("c")}
	s, out := scriptedSession(t, []string{actionNext, actionFlag, actionNext})

	result, err := s.Run(questions)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Reviewed)
	// The second question was flagged; numbers are 1-based.
	assert.Equal(t, []int{2}, result.Flagged)
	assert.False(t, result.Quit)

	data, err := os.ReadFile(s.FlagPath)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(data))

	assert.Contains(t, out.String(), "QUESTION 1 of 3")
	assert.Contains(t, out.String(), "CORRECT ANSWER: C")
}

func TestSessionQuitStopsEarly(t *testing.T) {
	questions := []Question{validQuestion("a"), validQuestion("b")}
	s, _ := scriptedSession(t, []string{actionQuit})

	result, err := s.Run(questions)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Reviewed)
	assert.True(t, result.Quit)
	assert.Empty(t, result.Flagged)
}

func TestSessionAppendsToExistingFlagFile(t *testing.T) {
	questions := []Question{validQuestion("a")}
	s, _ := scriptedSession(t, []string{actionFlag})
	require.NoError(t, os.MkdirAll(filepath.Dir(s.FlagPath), 0755))
	require.NoError(t, os.WriteFile(s.FlagPath, []byte("7\n"), 0644))

	_, err := s.Run(questions)
	require.NoError(t, err)

	data, err := os.ReadFile(s.FlagPath)
	require.NoError(t, err)
	assert.Equal(t, "7\n1\n", string(data))
}
