package question

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bioeval/internal/config"
	"bioeval/internal/llm"
	"bioeval/internal/logging"
)

const generationPrompt = `You are an expert biology professor creating exam questions for MMLU-Pro Biology. Your questions will be reviewed by a PhD molecular biologist, so accuracy is critical.

Generate a multiple-choice question about: %[2]s

CRITICAL REQUIREMENTS:

1. ACCURACY FIRST: Only write questions where you are highly confident in the correct answer. If a topic is ambiguous or has competing valid interpretations, choose a different angle.

2. QUESTION STYLE: Write questions that match MMLU-Pro Biology format. Use varied question structures:
   - "Which of the following best describes...?"
   - "What would be the expected result if...?"
   - "Which statement about X is correct?"
   - "The process of X requires which of the following?"
   - "A mutation in gene X would most likely affect...?"
   - "Which of the following is true regarding...?"

   DO NOT start every question with "A researcher observes..." — vary your approach.

   Mix of question types:
   - ~50%% application/reasoning (predict outcomes, explain mechanisms)
   - ~50%% knowledge (identify correct statements, recall key facts)

3. SIMPLE AND DIRECT: Questions should be clear and concise. Avoid unnecessarily complex scenarios.

4. AVOID ARITHMETIC: Do not write questions requiring multi-step calculations.

5. ONE CLEAR ANSWER: There must be exactly one defensible correct answer. All distractors must be clearly wrong to an expert.

6. ANSWER OPTIONS: Provide exactly 10 options (A-J). Keep options concise (typically under 15 words each). Distractors should represent plausible misconceptions.

7. REASONING: Provide brief reasoning (2-4 sentences) explaining why the correct answer is right and why key distractors are wrong.

8. SELF-CHECK: Before outputting, verify:
   - Does the reasoning support your chosen answer?
   - Is there any option that could arguably be more correct?
   - Would a biology PhD agree with your answer?

9. CORE CONCEPT TAG: Provide a short (3-5 word) tag identifying the specific concept being tested.

   Examples of GOOD tags (specific):
   - "Dom34 ribosome rescue function"
   - "telomerase RNA template role"
   - "histone acetylation transcription activation"

   Examples of BAD tags (too vague):
   - "gene regulation"
   - "DNA repair"

ALREADY COVERED CONCEPTS (do not repeat these):
%[3]s

Output JSON with this exact structure:
{
    "question": "The question text",
    "options": {
        "A": "First option",
        "B": "Second option",
        "C": "Third option",
        "D": "Fourth option",
        "E": "Fifth option",
        "F": "Sixth option",
        "G": "Seventh option",
        "H": "Eighth option",
        "I": "Ninth option",
        "J": "Tenth option"
    },
    "core_concept": "3-5 word specific concept tag",
    "reasoning": "Brief explanation (2-4 sentences) of why the answer is correct",
    "correct_answer": "The letter (A-J)",
    "confidence": "high/medium/low",
    "topic": "%[1]s",
    "subtopic": "%[2]s"
}

Only output questions where your confidence is HIGH.

Return ONLY the JSON, no other text.`

// Generator produces validated questions topic by topic.
type Generator struct {
	client llm.Client
	cfg    config.GenerationConfig
	dedup  *ConceptIndex
	logger logging.Logger

	mu       sync.Mutex
	concepts []string
}

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Questions []Question
	Attempted int
	Rejected  int
}

// NewGenerator creates a question generator. dedup may be nil, in which case
// only the prompt-level concept list guards against duplicates.
func NewGenerator(client llm.Client, cfg config.GenerationConfig, dedup *ConceptIndex, logger logging.Logger) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		dedup:  dedup,
		logger: logging.OrNop(logger),
	}
}

// Generate produces questions for every configured category and topic.
// Topics run concurrently up to the configured worker count; the covered
// concept list is shared across workers so later prompts exclude earlier
// concepts.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	var (
		mu        sync.Mutex
		questions []Question
		attempted int
		rejected  int
	)

	group, ctx := errgroup.WithContext(ctx)
	workers := g.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	group.SetLimit(workers)

	for category, topics := range g.cfg.Topics {
		for _, topic := range topics {
			group.Go(func() error {
				for i := 0; i < g.cfg.QuestionsPerTopic; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}

					mu.Lock()
					attempted++
					mu.Unlock()

					q, err := g.generateOne(ctx, category, topic)
					if err != nil {
						g.logger.Warn("Generation failed for topic %q: %v", topic, err)
						mu.Lock()
						rejected++
						mu.Unlock()
					} else {
						mu.Lock()
						questions = append(questions, *q)
						mu.Unlock()
					}

					g.pace(ctx)
				}
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info("Generation complete: %d accepted, %d rejected of %d attempts",
		len(questions), rejected, attempted)
	return &GenerateResult{Questions: questions, Attempted: attempted, Rejected: rejected}, nil
}

// generateOne requests a single question and validates it. Low-confidence
// output, malformed option sets, and duplicate concepts are all rejected.
func (g *Generator) generateOne(ctx context.Context, category, topic string) (*Question, error) {
	prompt := fmt.Sprintf(generationPrompt, category, topic, g.coveredConcepts())

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:       g.cfg.Model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var q Question
	if err := llm.ExtractJSON(resp.Content, &q); err != nil {
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	q.Category = category
	q.Subtopic = topic

	if concept := strings.TrimSpace(q.CoreConcept); concept != "" {
		if g.dedup != nil {
			dup, existing, err := g.dedup.IsDuplicate(ctx, concept)
			if err != nil {
				g.logger.Warn("Concept similarity check failed, keeping question: %v", err)
			} else if dup {
				return nil, fmt.Errorf("duplicate concept %q (matches %q)", concept, existing)
			}
			if err := g.dedup.Add(ctx, concept); err != nil {
				g.logger.Warn("Failed to index concept %q: %v", concept, err)
			}
		}
		g.trackConcept(concept)
	}

	return &q, nil
}

func (g *Generator) coveredConcepts() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.concepts) == 0 {
		return "- None yet"
	}
	lines := make([]string, len(g.concepts))
	for i, c := range g.concepts {
		lines[i] = "- " + c
	}
	return strings.Join(lines, "\n")
}

func (g *Generator) trackConcept(concept string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.concepts = append(g.concepts, concept)
}

// pace sleeps between API calls to stay under provider rate limits.
func (g *Generator) pace(ctx context.Context) {
	if g.cfg.PacingMillis <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(g.cfg.PacingMillis) * time.Millisecond):
	}
}
