package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lumen-edu/lumen/internal/util"
	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/store"
)

const (
	// Block and word caps keep the extraction prompt inside the context
	// windows of the smaller chat models.
	maxBlocksPerPrompt = 50
	maxPromptWords     = 6000
	maxConcepts        = 10
)

// ConceptExtractionAgent extracts the key concepts from parsed text blocks
// and writes each one to the vector index and the knowledge graph.
type ConceptExtractionAgent struct {
	ai      ai.TutorAIClient
	vectors *store.Lazy[store.VectorIndex]
	graph   *store.Lazy[store.GraphStore]
}

// NewConceptExtractionAgent creates a concept extraction agent.
func NewConceptExtractionAgent(
	aiClient ai.TutorAIClient,
	vectors *store.Lazy[store.VectorIndex],
	graph *store.Lazy[store.GraphStore],
) *ConceptExtractionAgent {
	return &ConceptExtractionAgent{
		ai:      aiClient,
		vectors: vectors,
		graph:   graph,
	}
}

type extractedConcept struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Importance int    `json:"importance"`
}

type conceptList struct {
	Concepts []extractedConcept `json:"concepts"`
}

func (a *ConceptExtractionAgent) Name() string { return "concept-extraction" }

// Run extracts concepts from input["blocks"]. Extraction failure fails the
// stage; per-concept indexing failures are logged and counted in
// meta["write_errors"] but do not fail the run, since the remaining
// concepts are still worth keeping.
func (a *ConceptExtractionAgent) Run(ctx context.Context, input map[string]any) Result {
	blocks, ok := input["blocks"].([]common.DocumentBlock)
	if !ok || len(blocks) == 0 {
		return Failure("concept extraction requires parsed blocks")
	}

	if len(blocks) > maxBlocksPerPrompt {
		blocks = blocks[:maxBlocksPerPrompt]
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Content)
	}
	text := util.TruncateWords(strings.Join(parts, "\n\n"), maxPromptWords)

	prompt := fmt.Sprintf(conceptExtractionPrompt, text)
	promptTokens := ai.CountTokens("", prompt)

	var out conceptList
	err := a.ai.GenerateCompletionWithFormat(
		ctx,
		"concept_extraction",
		"Key concepts with definitions and importance ratings",
		prompt,
		&out,
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return Failuref("concept extraction failed: %v", err)
	}

	sort.SliceStable(out.Concepts, func(i, j int) bool {
		return out.Concepts[i].Importance > out.Concepts[j].Importance
	})
	if len(out.Concepts) > maxConcepts {
		out.Concepts = out.Concepts[:maxConcepts]
	}

	concepts := make([]common.Concept, 0, len(out.Concepts))
	for _, c := range out.Concepts {
		concepts = append(concepts, common.Concept{
			Name:       c.Name,
			Definition: c.Definition,
			Importance: c.Importance,
			Origin:     common.ConceptOriginText,
		})
	}

	indexed, writeErrors := a.index(ctx, concepts)

	logger.Info(
		"[Concepts] extraction complete",
		"extracted", len(concepts),
		"indexed", indexed,
		"write_errors", writeErrors,
	)

	return Result{
		Success: true,
		Payload: map[string]any{
			"concepts":         concepts,
			"indexed_concepts": indexed,
		},
		Meta: map[string]any{
			"prompt_tokens": promptTokens,
			"write_errors":  writeErrors,
		},
	}
}

// index embeds each concept and writes it to the vector index and the
// graph. Failures are counted per concept; a concept whose embedding or
// vector write failed is skipped entirely so the two stores cannot drift
// further apart than one missing node.
func (a *ConceptExtractionAgent) index(ctx context.Context, concepts []common.Concept) (int, int) {
	if len(concepts) == 0 {
		return 0, 0
	}

	vectors, err := a.vectors.Get(ctx)
	if err != nil {
		logger.Error("[Concepts] vector index unavailable, skipping indexing", "err", err)
		return 0, len(concepts)
	}
	graph, err := a.graph.Get(ctx)
	if err != nil {
		logger.Error("[Concepts] graph store unavailable, skipping indexing", "err", err)
		return 0, len(concepts)
	}

	indexed := 0
	writeErrors := 0

	for i, c := range concepts {
		embeddingID := fmt.Sprintf("concept_%d", i)

		embedding, err := a.ai.GenerateEmbedding(ctx, []byte(c.Name+": "+c.Definition))
		if err != nil {
			logger.Error("[Concepts] embedding failed", "concept", c.Name, "err", err)
			writeErrors++
			continue
		}

		err = vectors.Upsert(ctx, []store.VectorEntry{{
			ID:        embeddingID,
			Embedding: embedding,
			Metadata: map[string]any{
				"name":       c.Name,
				"definition": c.Definition,
				"importance": c.Importance,
				"origin":     string(c.Origin),
			},
		}})
		if err != nil {
			logger.Error("[Concepts] vector upsert failed", "concept", c.Name, "err", err)
			writeErrors++
			continue
		}

		err = graph.AddConcept(ctx, store.ConceptNode{
			Name:        c.Name,
			Definition:  c.Definition,
			Importance:  float64(c.Importance),
			Origin:      c.Origin,
			Page:        c.Page,
			EmbeddingID: embeddingID,
		})
		if err != nil {
			logger.Error("[Concepts] graph write failed", "concept", c.Name, "err", err)
			writeErrors++
			continue
		}

		indexed++
	}

	return indexed, writeErrors
}
