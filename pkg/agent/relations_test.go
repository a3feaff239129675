package agent

import (
	"context"
	"testing"

	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/store"
)

func knownConcepts(names ...string) []common.Concept {
	concepts := make([]common.Concept, 0, len(names))
	for _, n := range names {
		concepts = append(concepts, common.Concept{
			Name:       n,
			Definition: "definition of " + n,
			Importance: 5,
			Origin:     common.ConceptOriginText,
		})
	}
	return concepts
}

func graphWithNodes(names ...string) *fakeGraphStore {
	g := newFakeGraphStore()
	for _, n := range names {
		g.nodes[n] = store.ConceptNode{Name: n}
	}
	return g
}

func TestRelationMapping_FiltersAndStores(t *testing.T) {
	aiClient := &fakeAI{formatJSON: `{
		"relations": [
			{"source": "recursion", "target": "stack", "relation_type": "Uses", "confidence": 0.9},
			{"source": "recursion", "target": "stack", "relation_type": "Uses", "confidence": 0.5},
			{"source": "recursion", "target": "quantum physics", "relation_type": "RelatedTo", "confidence": 0.95},
			{"source": "stack", "target": "recursion", "relation_type": "Prerequisite", "confidence": 0.8}
		]
	}`}
	graph := graphWithNodes("recursion", "stack")
	a := NewRelationMappingAgent(aiClient, lazyGraph(graph))

	res := a.Run(context.Background(), map[string]any{
		"concepts": knownConcepts("recursion", "stack"),
	})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	relations := res.Payload["relations"].([]common.Relation)
	if len(relations) != 2 {
		t.Fatalf("expected 2 accepted relations, got %d", len(relations))
	}
	// Low confidence and unknown endpoint are both rejections.
	if res.Payload["relations_rejected"] != 2 {
		t.Fatalf("relations_rejected = %v, want 2", res.Payload["relations_rejected"])
	}
	if len(graph.relations) != 2 {
		t.Fatalf("expected 2 relations in graph, got %d", len(graph.relations))
	}
}

func TestRelationMapping_StoreLevelRejectionCounted(t *testing.T) {
	// The model proposes a valid-looking relation, but the graph has no
	// node for the target, so the store drops it.
	aiClient := &fakeAI{formatJSON: `{
		"relations": [
			{"source": "recursion", "target": "stack", "relation_type": "Uses", "confidence": 0.9}
		]
	}`}
	graph := graphWithNodes("recursion")
	a := NewRelationMappingAgent(aiClient, lazyGraph(graph))

	res := a.Run(context.Background(), map[string]any{
		"concepts": knownConcepts("recursion", "stack"),
	})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["relations_rejected"] != 1 {
		t.Fatalf("relations_rejected = %v, want 1", res.Payload["relations_rejected"])
	}
	if len(res.Payload["relations"].([]common.Relation)) != 0 {
		t.Fatal("expected no accepted relations")
	}
}

func TestRelationMapping_NormalizesType(t *testing.T) {
	aiClient := &fakeAI{formatJSON: `{
		"relations": [
			{"source": "a", "target": "b", "relation_type": "part_of", "confidence": 0.9},
			{"source": "b", "target": "a", "relation_type": "something else", "confidence": 0.9}
		]
	}`}
	graph := graphWithNodes("a", "b")
	a := NewRelationMappingAgent(aiClient, lazyGraph(graph))

	res := a.Run(context.Background(), map[string]any{"concepts": knownConcepts("a", "b")})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	relations := res.Payload["relations"].([]common.Relation)
	if relations[0].Type != common.RelationPartOf {
		t.Fatalf("expected PartOf, got %q", relations[0].Type)
	}
	if relations[1].Type != common.RelationRelatedTo {
		t.Fatalf("expected RelatedTo fallback, got %q", relations[1].Type)
	}
}

func TestRelationMapping_RequiresConcepts(t *testing.T) {
	a := NewRelationMappingAgent(&fakeAI{}, lazyGraph(newFakeGraphStore()))

	if res := a.Run(context.Background(), map[string]any{}); res.Success {
		t.Fatal("expected failure without concepts")
	}
}
