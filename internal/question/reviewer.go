package question

import (
	"context"
	"fmt"
	"time"

	"bioeval/internal/config"
	"bioeval/internal/llm"
	"bioeval/internal/logging"
)

const reviewPrompt = `You are a PhD molecular biologist reviewing multiple-choice exam questions for accuracy and quality.

Review the following question and assess whether it has any issues:

QUESTION:
%s

OPTIONS:
%s

STATED CORRECT ANSWER: %s

REASONING PROVIDED:
%s

---

Check for the following issues:

1. MULTIPLE DEFENSIBLE ANSWERS: Could a knowledgeable expert reasonably argue for a different answer than the stated correct one? Are any distractors actually correct or partially correct?

2. ACCURACY: Is the stated correct answer actually correct? Is the reasoning factually accurate? Are there any scientific errors?

3. REASONING SUPPORTS CONCLUSION: Does the provided reasoning actually lead to the stated answer, or does it contradict itself?

4. AMBIGUITY: Is the question wording clear? Could it be interpreted in multiple ways that would lead to different answers?

5. QUESTION QUALITY: Is this a good test of understanding, or is it flawed in some way?

Respond with JSON in this exact format:
{
    "verdict": "PASS" or "FLAG",
    "confidence": "high" or "medium" or "low",
    "concerns": ["list", "of", "specific", "concerns"] or [],
    "notes": "Brief explanation of your assessment"
}

If you have ANY uncertainty or concerns about accuracy or question quality, set verdict to "FLAG".
Only set verdict to "PASS" if you are confident the question is accurate and has exactly one defensible answer.

Return ONLY the JSON, no other text.`

const defensePrompt = `You are a PhD molecular biologist. Your task is to DEFEND this multiple-choice question as suitable for an exam.

QUESTION:
%s

OPTIONS:
%s

STATED CORRECT ANSWER: %[3]s

---

Make the strongest case you can that:
1. The stated answer (%[3]s) is DEFINITIVELY correct
2. NO other option is defensible as correct
3. The question is clear and unambiguous

Really try to defend it. But be honest — if you cannot make a confident defense, say so.

Respond with JSON in this exact format:
{
    "can_defend": true or false,
    "defense": "Your argument for why this question is solid" OR "Why you cannot defend it",
    "weak_points": ["Any reservations you have, even if you can still defend it overall"]
}

Set "can_defend" to true ONLY if you can confidently argue that the stated answer is correct AND no other option is defensible.

Return ONLY the JSON, no other text.`

// Reviewer runs model-based review and defense passes over questions.
type Reviewer struct {
	client llm.Client
	cfg    config.ReviewConfig
	logger logging.Logger

	// pacing between API calls, overridable in tests
	pacing time.Duration
}

// ReviewOutcome splits questions by verdict after a review pass.
type ReviewOutcome struct {
	Passed  []Question
	Flagged []Question
}

// DefenseOutcome splits questions by defensibility after a defense pass.
type DefenseOutcome struct {
	Defended   []Question
	CantDefend []Question
}

// NewReviewer creates a reviewer.
func NewReviewer(client llm.Client, cfg config.ReviewConfig, logger logging.Logger) *Reviewer {
	return &Reviewer{
		client: client,
		cfg:    cfg,
		logger: logging.OrNop(logger),
		pacing: time.Second,
	}
}

// ReviewAll reviews every question. A failed review call flags the question
// rather than passing it, so API trouble never lets a bad question through.
func (r *Reviewer) ReviewAll(ctx context.Context, questions []Question) (*ReviewOutcome, error) {
	outcome := &ReviewOutcome{}

	for i := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := questions[i]
		review, err := r.reviewOne(ctx, &q)
		if err != nil {
			r.logger.Warn("Review failed for question %d, flagging: %v", i+1, err)
			q.Review = &Review{Verdict: "FLAG", Notes: "Auto-review failed"}
			outcome.Flagged = append(outcome.Flagged, q)
		} else {
			q.Review = review
			if review.Passed() {
				outcome.Passed = append(outcome.Passed, q)
			} else {
				outcome.Flagged = append(outcome.Flagged, q)
			}
		}

		r.pace(ctx)
	}

	r.logger.Info("Review complete: %d passed, %d flagged", len(outcome.Passed), len(outcome.Flagged))
	return outcome, nil
}

// DefendAll runs the defense pass over every question. A failed defense call
// counts as not defensible.
func (r *Reviewer) DefendAll(ctx context.Context, questions []Question) (*DefenseOutcome, error) {
	outcome := &DefenseOutcome{}

	for i := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := questions[i]
		defense, err := r.defendOne(ctx, &q)
		if err != nil {
			r.logger.Warn("Defense failed for question %d, flagging: %v", i+1, err)
			q.Defense = &Defense{CanDefend: false, Defense: "Auto-defense failed"}
			outcome.CantDefend = append(outcome.CantDefend, q)
		} else {
			q.Defense = defense
			if defense.CanDefend {
				outcome.Defended = append(outcome.Defended, q)
			} else {
				outcome.CantDefend = append(outcome.CantDefend, q)
			}
		}

		r.pace(ctx)
	}

	r.logger.Info("Defense complete: %d defended, %d flagged", len(outcome.Defended), len(outcome.CantDefend))
	return outcome, nil
}

func (r *Reviewer) reviewOne(ctx context.Context, q *Question) (*Review, error) {
	prompt := fmt.Sprintf(reviewPrompt, q.Question, q.FormatOptions(), q.CorrectAnswer, q.Reasoning)

	resp, err := r.client.Complete(ctx, llm.CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var review Review
	if err := llm.ExtractJSON(resp.Content, &review); err != nil {
		return nil, fmt.Errorf("unparseable review: %w", err)
	}
	if review.Verdict != "PASS" && review.Verdict != "FLAG" {
		return nil, fmt.Errorf("unexpected verdict %q", review.Verdict)
	}
	return &review, nil
}

func (r *Reviewer) defendOne(ctx context.Context, q *Question) (*Defense, error) {
	prompt := fmt.Sprintf(defensePrompt, q.Question, q.FormatOptions(), q.CorrectAnswer)

	resp, err := r.client.Complete(ctx, llm.CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var defense Defense
	if err := llm.ExtractJSON(resp.Content, &defense); err != nil {
		return nil, fmt.Errorf("unparseable defense: %w", err)
	}
	return &defense, nil
}

func (r *Reviewer) pace(ctx context.Context) {
	if r.pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.pacing):
	}
}
