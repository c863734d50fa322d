package question

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"bioeval/internal/llm"
	"bioeval/internal/logging"
)

// similarityThreshold marks two concept tags as the same concept. Tags are
// short phrases, so near-identical meaning scores well above this.
const similarityThreshold = 0.90

// ConceptIndex detects duplicate core concepts across generated questions.
// It keeps an in-memory vector index over concept tags; when no embedder is
// available it degrades to exact (case-folded) matching.
type ConceptIndex struct {
	mu         sync.Mutex
	collection *chromem.Collection
	seen       map[string]string // normalized -> original
	count      int
	logger     logging.Logger
}

// NewConceptIndex builds a concept index. embedder may be nil for
// exact-match-only operation.
func NewConceptIndex(embedder llm.Embedder, logger logging.Logger) (*ConceptIndex, error) {
	idx := &ConceptIndex{
		seen:   make(map[string]string),
		logger: logging.OrNop(logger),
	}

	if embedder != nil {
		db := chromem.NewDB()
		embedFunc := func(ctx context.Context, text string) ([]float32, error) {
			return embedder.Embed(ctx, text)
		}
		collection, err := db.CreateCollection("concepts", nil, embedFunc)
		if err != nil {
			return nil, fmt.Errorf("create concept collection: %w", err)
		}
		idx.collection = collection
	}

	return idx, nil
}

// IsDuplicate reports whether concept matches a previously added concept,
// returning the existing tag when it does.
func (idx *ConceptIndex) IsDuplicate(ctx context.Context, concept string) (bool, string, error) {
	normalized := normalizeConcept(concept)

	idx.mu.Lock()
	if existing, ok := idx.seen[normalized]; ok {
		idx.mu.Unlock()
		return true, existing, nil
	}
	collection := idx.collection
	count := idx.count
	idx.mu.Unlock()

	if collection == nil || count == 0 {
		return false, "", nil
	}

	results, err := collection.Query(ctx, concept, 1, nil, nil)
	if err != nil {
		return false, "", fmt.Errorf("concept query: %w", err)
	}
	if len(results) > 0 && results[0].Similarity >= similarityThreshold {
		idx.logger.Debug("Concept %q matches %q (similarity %.3f)",
			concept, results[0].Content, results[0].Similarity)
		return true, results[0].Content, nil
	}

	return false, "", nil
}

// Add records a concept in the index.
func (idx *ConceptIndex) Add(ctx context.Context, concept string) error {
	idx.mu.Lock()
	idx.seen[normalizeConcept(concept)] = concept
	idx.count++
	id := fmt.Sprintf("concept-%d", idx.count)
	collection := idx.collection
	idx.mu.Unlock()

	if collection == nil {
		return nil
	}

	if err := collection.AddDocument(ctx, chromem.Document{ID: id, Content: concept}); err != nil {
		return fmt.Errorf("index concept: %w", err)
	}
	return nil
}

// Len returns the number of indexed concepts.
func (idx *ConceptIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.count
}

func normalizeConcept(concept string) string {
	return strings.Join(strings.Fields(strings.ToLower(concept)), " ")
}
