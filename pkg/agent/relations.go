package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/store"
)

const (
	maxConceptsForMapping = 10
	maxRelations          = 15
	// Relations at or below this confidence are dropped rather than
	// polluting the graph with weak edges.
	minRelationConfidence = 0.7
)

// RelationMappingAgent asks the model for typed relationships between the
// extracted concepts and stores the ones that survive validation.
type RelationMappingAgent struct {
	ai    ai.TutorAIClient
	graph *store.Lazy[store.GraphStore]
}

// NewRelationMappingAgent creates a relation mapping agent.
func NewRelationMappingAgent(aiClient ai.TutorAIClient, graph *store.Lazy[store.GraphStore]) *RelationMappingAgent {
	return &RelationMappingAgent{ai: aiClient, graph: graph}
}

type extractedRelation struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"relation_type"`
	Confidence float64 `json:"confidence"`
}

type relationList struct {
	Relations []extractedRelation `json:"relations"`
}

func (a *RelationMappingAgent) Name() string { return "relation-mapping" }

// Run maps relations between input["concepts"]. A relation is rejected
// when its confidence is too low, when it names a concept outside the
// input set, or when the graph store drops it for a missing endpoint; the
// rejected count is reported so silent edge loss stays observable.
func (a *RelationMappingAgent) Run(ctx context.Context, input map[string]any) Result {
	concepts, ok := input["concepts"].([]common.Concept)
	if !ok || len(concepts) == 0 {
		return Failure("relation mapping requires concepts")
	}

	if len(concepts) > maxConceptsForMapping {
		concepts = concepts[:maxConceptsForMapping]
	}

	names := make(map[string]bool, len(concepts))
	lines := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names[c.Name] = true
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Name, c.Definition))
	}

	prompt := fmt.Sprintf(relationMappingPrompt, strings.Join(lines, "\n"))

	var out relationList
	err := a.ai.GenerateCompletionWithFormat(
		ctx,
		"relation_mapping",
		"Typed relationships between the listed concepts",
		prompt,
		&out,
	)
	if err != nil {
		return Failuref("relation mapping failed: %v", err)
	}

	if len(out.Relations) > maxRelations {
		out.Relations = out.Relations[:maxRelations]
	}

	graph, err := a.graph.Get(ctx)
	if err != nil {
		return Failuref("graph store unavailable: %v", err)
	}

	accepted := make([]common.Relation, 0, len(out.Relations))
	rejected := 0
	writeErrors := 0

	for _, r := range out.Relations {
		if r.Confidence <= minRelationConfidence {
			rejected++
			continue
		}
		if !names[r.Source] || !names[r.Target] {
			rejected++
			continue
		}

		rel := common.Relation{
			Source:     r.Source,
			Target:     r.Target,
			Type:       normalizeRelationType(r.Type),
			Confidence: r.Confidence,
		}

		stored, err := graph.AddRelation(ctx, rel)
		if err != nil {
			logger.Error("[Relations] graph write failed", "source", rel.Source, "target", rel.Target, "err", err)
			writeErrors++
			continue
		}
		if !stored {
			rejected++
			continue
		}

		accepted = append(accepted, rel)
	}

	logger.Info(
		"[Relations] mapping complete",
		"proposed", len(out.Relations),
		"accepted", len(accepted),
		"rejected", rejected,
	)

	return Result{
		Success: true,
		Payload: map[string]any{
			"relations":          accepted,
			"relations_rejected": rejected,
		},
		Meta: map[string]any{
			"write_errors": writeErrors,
		},
	}
}

func normalizeRelationType(raw string) common.RelationType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prerequisite":
		return common.RelationPrerequisite
	case "isa", "is_a", "is-a":
		return common.RelationIsA
	case "partof", "part_of", "part-of":
		return common.RelationPartOf
	case "uses":
		return common.RelationUses
	case "extends":
		return common.RelationExtends
	default:
		return common.RelationRelatedTo
	}
}
