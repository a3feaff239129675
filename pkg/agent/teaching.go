package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/store"
)

const (
	retrievalTopK    = 3
	noContextMessage = "No relevant course material was found for this question."
)

// TeachingAgent answers a student question using the closest concepts from
// the vector index as grounding material.
type TeachingAgent struct {
	ai      ai.TutorAIClient
	vectors *store.Lazy[store.VectorIndex]
}

// NewTeachingAgent creates a teaching agent.
func NewTeachingAgent(aiClient ai.TutorAIClient, vectors *store.Lazy[store.VectorIndex]) *TeachingAgent {
	return &TeachingAgent{ai: aiClient, vectors: vectors}
}

func (a *TeachingAgent) Name() string { return "teaching" }

// Run answers input["query"]. The retrieved concept names are reported in
// the payload so the caller can show the student what the answer is based
// on, and the assembled context text is passed along for the critique
// stage.
func (a *TeachingAgent) Run(ctx context.Context, input map[string]any) Result {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return Failure("teaching requires a query")
	}

	embedding, err := a.ai.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return Failuref("failed to embed query: %v", err)
	}

	index, err := a.vectors.Get(ctx)
	if err != nil {
		return Failuref("vector index unavailable: %v", err)
	}

	matches, err := index.Query(ctx, embedding, retrievalTopK)
	if err != nil {
		return Failuref("retrieval failed: %v", err)
	}

	contextText, contextUsed := buildContext(matches)

	prompt := fmt.Sprintf(teachingPrompt, contextText, query)
	response, err := a.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.7))
	if err != nil {
		return Failuref("answer generation failed: %v", err)
	}

	logger.Info("[Teaching] answer generated", "matches", len(matches))

	return Success(map[string]any{
		"response":     response,
		"context_used": contextUsed,
		"context_text": contextText,
	})
}

func buildContext(matches []store.VectorMatch) (string, []string) {
	if len(matches) == 0 {
		return noContextMessage, []string{}
	}

	used := make([]string, 0, len(matches))
	var builder strings.Builder
	for _, m := range matches {
		name, _ := m.Metadata["name"].(string)
		definition, _ := m.Metadata["definition"].(string)
		if name == "" {
			continue
		}
		used = append(used, name)
		fmt.Fprintf(&builder, "Concept: %s\nDefinition: %s\n\n", name, definition)
	}

	if len(used) == 0 {
		return noContextMessage, []string{}
	}
	return strings.TrimSpace(builder.String()), used
}
