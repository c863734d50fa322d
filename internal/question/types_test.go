package question

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsCompleteQuestion(t *testing.T) {
	q := validQuestion("primase RNA primer synthesis")
	assert.NoError(t, q.Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Question)
	}{
		{"empty question", func(q *Question) { q.Question = " " }},
		{"empty reasoning", func(q *Question) { q.Reasoning = "" }},
		{"empty answer", func(q *Question) { q.CorrectAnswer = "" }},
		{"nine options", func(q *Question) { delete(q.Options, "J") }},
		{"wrong letters", func(q *Question) { delete(q.Options, "A"); q.Options["K"] = "extra" }},
		{"answer not an option", func(q *Question) { q.CorrectAnswer = "Z" }},
		{"medium confidence", func(q *Question) { q.Confidence = "medium" }},
		{"low confidence", func(q *Question) { q.Confidence = "low" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestion("c")
			tc.mutate(&q)
			assert.Error(t, q.Validate())
		})
	}
}

func TestValidateAcceptsMixedCaseHigh(t *testing.T) {
	q := validQuestion("c")
	q.Confidence = "High"
	assert.NoError(t, q.Validate())
}

func TestFormatOptionsOrder(t *testing.T) {
	q := validQuestion("c")
	lines := strings.Split(q.FormatOptions(), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, "A. Helicase", lines[0])
	assert.Equal(t, "J. Ribozyme", lines[9])
}

func TestReviewPassed(t *testing.T) {
	assert.True(t, (&Review{Verdict: "PASS"}).Passed())
	assert.False(t, (&Review{Verdict: "FLAG"}).Passed())
	var nilReview *Review
	assert.False(t, nilReview.Passed())
}
