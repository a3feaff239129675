package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/loader"
	"github.com/lumen-edu/lumen/pkg/store"
)

// fakeAI is a canned-response ai.TutorAIClient for agent tests.
type fakeAI struct {
	completion    string
	completionErr error

	formatJSON string
	formatErr  error

	embedding     []float32
	embeddingErr  error
	embedCalls    int
	failEmbedCall int // 1-based call number that fails; 0 disables

	lastPrompt      string
	lastTemperature float64
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.recordOptions(prompt, opts)
	return f.completion, f.completionErr
}

func (f *fakeAI) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.recordOptions(prompt, opts)
	if f.formatErr != nil {
		return f.formatErr
	}
	return ai.UnmarshalFlexible(f.formatJSON, out)
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.embedCalls++
	if f.failEmbedCall > 0 && f.embedCalls == f.failEmbedCall {
		return nil, errors.New("embedding backend unavailable")
	}
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	if f.embedding != nil {
		return f.embedding, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeAI) GenerateImageDescription(ctx context.Context, prompt string, image loader.Base64Image) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func (f *fakeAI) recordOptions(prompt string, opts []ai.GenerateOption) {
	f.lastPrompt = prompt
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	f.lastTemperature = options.Temperature
}

// fakeVectorIndex records upserts and answers queries from a canned list.
type fakeVectorIndex struct {
	entries   []store.VectorEntry
	upsertErr error

	matches  []store.VectorMatch
	queryErr error
}

func (f *fakeVectorIndex) Upsert(ctx context.Context, entries []store.VectorEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeVectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]store.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.matches) > topK {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

// fakeGraphStore is an in-memory store.GraphStore with the same
// endpoint-validation behavior as the real one.
type fakeGraphStore struct {
	nodes     map[string]store.ConceptNode
	relations []common.Relation

	addConceptErr  error
	addRelationErr error
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{nodes: make(map[string]store.ConceptNode)}
}

func (f *fakeGraphStore) AddConcept(ctx context.Context, node store.ConceptNode) error {
	if f.addConceptErr != nil {
		return f.addConceptErr
	}
	f.nodes[node.Name] = node
	return nil
}

func (f *fakeGraphStore) AddRelation(ctx context.Context, rel common.Relation) (bool, error) {
	if f.addRelationErr != nil {
		return false, f.addRelationErr
	}
	if _, ok := f.nodes[rel.Source]; !ok {
		return false, nil
	}
	if _, ok := f.nodes[rel.Target]; !ok {
		return false, nil
	}
	f.relations = append(f.relations, rel)
	return true, nil
}

func (f *fakeGraphStore) GetConcept(ctx context.Context, name string) (*store.ConceptNode, error) {
	node, ok := f.nodes[name]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

func (f *fakeGraphStore) GetRelated(ctx context.Context, name string, maxDepth int) ([]store.RelatedConcept, error) {
	return nil, nil
}

func (f *fakeGraphStore) Relations(ctx context.Context, name string) ([]common.Relation, error) {
	return f.relations, nil
}

func (f *fakeGraphStore) Stats(ctx context.Context) (store.GraphStats, error) {
	return store.GraphStats{Concepts: len(f.nodes), Relations: len(f.relations)}, nil
}

func lazyVectors(v store.VectorIndex) *store.Lazy[store.VectorIndex] {
	return store.NewLazy(func(ctx context.Context) (store.VectorIndex, error) { return v, nil })
}

func lazyGraph(g store.GraphStore) *store.Lazy[store.GraphStore] {
	return store.NewLazy(func(ctx context.Context) (store.GraphStore, error) { return g, nil })
}

func brokenLazyVectors() *store.Lazy[store.VectorIndex] {
	return store.NewLazy(func(ctx context.Context) (store.VectorIndex, error) {
		return nil, errors.New("database unreachable")
	})
}

// fakeParser returns canned blocks.
type fakeParser struct {
	blocks []common.DocumentBlock
	err    error
}

func (f *fakeParser) Parse(ctx context.Context, source string) ([]common.DocumentBlock, error) {
	return f.blocks, f.err
}

func makeBlocks(n int) []common.DocumentBlock {
	blocks := make([]common.DocumentBlock, n)
	for i := range blocks {
		blocks[i] = common.DocumentBlock{
			ID:      fmt.Sprintf("block_%d", i),
			Kind:    "text",
			Content: fmt.Sprintf("content-%d", i),
			Page:    1,
		}
	}
	return blocks
}
