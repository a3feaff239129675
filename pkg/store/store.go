package store

import (
	"context"
	"sync"

	"github.com/lumen-edu/lumen/pkg/common"
)

// ConceptNode is a concept as stored in the knowledge graph, including the
// provenance needed to trace it back to its vector entry and source page.
type ConceptNode struct {
	Name        string               `json:"name"`
	Definition  string               `json:"definition"`
	Importance  float64              `json:"importance"`
	Origin      common.ConceptOrigin `json:"origin"`
	Page        int                  `json:"page"`
	EmbeddingID string               `json:"embedding_id"`
}

// RelatedConcept is a graph neighbor together with its distance from the
// concept the traversal started at.
type RelatedConcept struct {
	ConceptNode
	Depth int `json:"depth"`
}

// GraphStats summarizes the stored knowledge graph.
type GraphStats struct {
	Concepts  int     `json:"concepts"`
	Relations int     `json:"relations"`
	Density   float64 `json:"density"`
}

// GraphStore persists concepts and the typed relations between them.
//
// AddRelation reports whether the relation was stored: a relation whose
// source or target concept does not exist in the graph is dropped and
// (false, nil) is returned, so callers can count rejections without
// treating them as storage failures.
type GraphStore interface {
	AddConcept(ctx context.Context, node ConceptNode) error
	AddRelation(ctx context.Context, rel common.Relation) (bool, error)
	GetConcept(ctx context.Context, name string) (*ConceptNode, error)
	GetRelated(ctx context.Context, name string, maxDepth int) ([]RelatedConcept, error)
	Relations(ctx context.Context, name string) ([]common.Relation, error)
	Stats(ctx context.Context) (GraphStats, error)
}

// VectorEntry is one embedding with its identifier and payload metadata.
type VectorEntry struct {
	ID        string
	Embedding []float32
	Metadata  map[string]any
}

// VectorMatch is a similarity search hit. Score is cosine similarity, so
// higher is closer.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorIndex stores embeddings and answers nearest-neighbor queries.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []VectorEntry) error
	Query(ctx context.Context, embedding []float32, topK int) ([]VectorMatch, error)
}

// Lazy defers construction of a store handle until it is first needed, so
// the process can start without its backing services being reachable.
// A failed build is not memoized; the next Get tries again.
type Lazy[T any] struct {
	build func(ctx context.Context) (T, error)

	mu    sync.Mutex
	value T
	ready bool
}

// NewLazy wraps a build function into a Lazy handle.
func NewLazy[T any](build func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the built value, constructing it on first use. Concurrent
// callers are serialized so the build runs at most once per attempt.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return l.value, nil
	}

	value, err := l.build(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	l.value = value
	l.ready = true
	return l.value, nil
}
