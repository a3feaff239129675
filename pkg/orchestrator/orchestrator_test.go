package orchestrator

import (
	"context"
	"testing"

	"github.com/lumen-edu/lumen/pkg/agent"
	"github.com/lumen-edu/lumen/pkg/common"
)

type stubStage struct {
	name   string
	result agent.Result
	inputs []map[string]any
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(ctx context.Context, input map[string]any) agent.Result {
	s.inputs = append(s.inputs, input)
	return s.result
}

func okStage(name string, payload map[string]any) *stubStage {
	return &stubStage{name: name, result: agent.Success(payload)}
}

func failStage(name string, message string) *stubStage {
	return &stubStage{name: name, result: agent.Failure(message)}
}

func textConcepts(names ...string) []common.Concept {
	concepts := make([]common.Concept, 0, len(names))
	for _, n := range names {
		concepts = append(concepts, common.Concept{Name: n, Origin: common.ConceptOriginText})
	}
	return concepts
}

func ingestStages() (parsing, concepts, vision, relations *stubStage) {
	parsing = okStage("parsing", map[string]any{
		"blocks":      []common.DocumentBlock{{ID: "block_0", Content: "text"}},
		"block_count": 1,
	})
	concepts = okStage("concept-extraction", map[string]any{
		"concepts":         textConcepts("recursion", "stack"),
		"indexed_concepts": 2,
	})
	vision = okStage("visual-concepts", map[string]any{
		"visual_concepts": []common.VisionConcept{{Kind: "flowchart", Page: 2}},
		"images_found":    1,
	})
	relations = okStage("relation-mapping", map[string]any{
		"relations":          []common.Relation{{Source: "recursion", Target: "stack"}},
		"relations_rejected": 1,
	})
	return parsing, concepts, vision, relations
}

func TestIngestDocument_FullRun(t *testing.T) {
	parsing, concepts, vision, relations := ingestStages()
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "notes.pdf")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["concepts_count"] != 3 {
		t.Fatalf("concepts_count = %v, want 3", res.Payload["concepts_count"])
	}
	if res.Payload["text_concepts"] != 2 || res.Payload["visual_concepts"] != 1 {
		t.Fatalf("unexpected split: %v text, %v visual", res.Payload["text_concepts"], res.Payload["visual_concepts"])
	}
	if res.Payload["relations_count"] != 1 || res.Payload["relations_rejected"] != 1 {
		t.Fatalf(
			"unexpected relation counts: %v accepted, %v rejected",
			res.Payload["relations_count"], res.Payload["relations_rejected"],
		)
	}
}

func TestIngestDocument_MergeOrderAndNoDedup(t *testing.T) {
	parsing, concepts, vision, relations := ingestStages()
	// Give the visual concept the same derived name shape as a text one to
	// prove nothing is deduplicated.
	concepts.result = agent.Success(map[string]any{
		"concepts":         textConcepts("Visual: flowchart (Page 2)", "stack"),
		"indexed_concepts": 2,
	})
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "notes.pdf")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	if len(relations.inputs) != 1 {
		t.Fatalf("expected 1 relation stage call, got %d", len(relations.inputs))
	}
	merged := relations.inputs[0]["concepts"].([]common.Concept)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged concepts, got %d", len(merged))
	}
	// Text concepts first, visual lowered last, duplicate names kept.
	if merged[0].Name != "Visual: flowchart (Page 2)" || merged[1].Name != "stack" {
		t.Fatalf("unexpected merge order: %v", merged)
	}
	if merged[2].Origin != common.ConceptOriginVisual || merged[2].Name != "Visual: flowchart (Page 2)" {
		t.Fatalf("expected lowered visual concept last, got %+v", merged[2])
	}
}

func TestIngestDocument_ParseFailureAborts(t *testing.T) {
	_, concepts, vision, relations := ingestStages()
	parsing := failStage("parsing", "failed to parse document")
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "broken.pdf")

	if res.Success {
		t.Fatal("expected failure when parsing fails")
	}
	if res.Error != "failed to parse document" {
		t.Fatalf("expected parse error to pass through, got %q", res.Error)
	}
	if len(concepts.inputs) != 0 || len(vision.inputs) != 0 {
		t.Fatal("no later stage should run after a parse failure")
	}
}

func TestIngestDocument_ConceptFailureAborts(t *testing.T) {
	parsing, _, vision, relations := ingestStages()
	concepts := failStage("concept-extraction", "concept extraction failed")
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "notes.pdf")

	if res.Success {
		t.Fatal("expected failure when concept extraction fails")
	}
	if len(vision.inputs) != 0 || len(relations.inputs) != 0 {
		t.Fatal("no later stage should run after concept extraction fails")
	}
}

func TestIngestDocument_VisionFailureDegrades(t *testing.T) {
	parsing, concepts, _, relations := ingestStages()
	vision := failStage("visual-concepts", "all vision providers exhausted")
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "notes.pdf")

	if !res.Success {
		t.Fatalf("expected success despite vision failure, got %q", res.Error)
	}
	if res.Payload["visual_concepts"] != 0 {
		t.Fatalf("visual_concepts = %v, want 0", res.Payload["visual_concepts"])
	}
	if res.Payload["concepts_count"] != 2 {
		t.Fatalf("concepts_count = %v, want 2", res.Payload["concepts_count"])
	}
	if res.Meta["vision_error"] != "all vision providers exhausted" {
		t.Fatalf("expected vision_error in meta, got %v", res.Meta)
	}
}

func TestIngestDocument_RelationFailureDegrades(t *testing.T) {
	parsing, concepts, vision, _ := ingestStages()
	relations := failStage("relation-mapping", "relation mapping failed")
	o := New(Params{Parsing: parsing, Concepts: concepts, Vision: vision, Relations: relations})

	res := o.IngestDocument(context.Background(), "notes.pdf")

	if !res.Success {
		t.Fatalf("expected success despite relation failure, got %q", res.Error)
	}
	if res.Payload["relations_count"] != 0 {
		t.Fatalf("relations_count = %v, want 0", res.Payload["relations_count"])
	}
	if res.Meta["relations_error"] == nil {
		t.Fatal("expected relations_error in meta")
	}
}

func TestAskTutor_Approved(t *testing.T) {
	teaching := okStage("teaching", map[string]any{
		"response":     "Recursion is a function calling itself.",
		"context_used": []string{"recursion"},
		"context_text": "Concept: recursion",
	})
	critic := okStage("critic", map[string]any{"approved": true, "critique": "APPROVED"})
	o := New(Params{Teaching: teaching, Critic: critic})

	res := o.AskTutor(context.Background(), "What is recursion?")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["response"] != "Recursion is a function calling itself." {
		t.Fatalf("unexpected response: %v", res.Payload["response"])
	}
	if _, flagged := res.Payload["warning"]; flagged {
		t.Fatal("approved answers must not carry a warning")
	}

	// The critic must have reviewed the generated answer with its context.
	if critic.inputs[0]["response"] != "Recursion is a function calling itself." {
		t.Fatalf("critic saw wrong response: %v", critic.inputs[0]["response"])
	}
	if critic.inputs[0]["context_text"] != "Concept: recursion" {
		t.Fatalf("critic saw wrong context: %v", critic.inputs[0]["context_text"])
	}
}

func TestAskTutor_FlaggedKeepsResponse(t *testing.T) {
	answer := "Recursion is a loop." // wrong, but must be returned unchanged
	teaching := okStage("teaching", map[string]any{
		"response":     answer,
		"context_used": []string{"recursion"},
		"context_text": "Concept: recursion",
	})
	critic := okStage("critic", map[string]any{
		"approved": false,
		"critique": "The answer conflates recursion with iteration.",
	})
	o := New(Params{Teaching: teaching, Critic: critic})

	res := o.AskTutor(context.Background(), "What is recursion?")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["response"] != answer {
		t.Fatal("flagged answer must be byte-identical to the generated one")
	}
	if res.Payload["warning"] != reviewWarning {
		t.Fatalf("warning = %v, want %q", res.Payload["warning"], reviewWarning)
	}
	if res.Payload["critique"] != "The answer conflates recursion with iteration." {
		t.Fatalf("unexpected critique: %v", res.Payload["critique"])
	}
}

func TestAskTutor_CriticFailureReturnsUnreviewed(t *testing.T) {
	teaching := okStage("teaching", map[string]any{
		"response":     "answer",
		"context_used": []string{},
		"context_text": "",
	})
	critic := failStage("critic", "critique failed: model overloaded")
	o := New(Params{Teaching: teaching, Critic: critic})

	res := o.AskTutor(context.Background(), "What is recursion?")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["response"] != "answer" {
		t.Fatalf("unexpected response: %v", res.Payload["response"])
	}
	if res.Meta["critique_error"] == nil {
		t.Fatal("expected critique_error in meta")
	}
	if _, flagged := res.Payload["warning"]; flagged {
		t.Fatal("a failed critique is not a rejection")
	}
}

func TestAskTutor_TeachingFailureAborts(t *testing.T) {
	teaching := failStage("teaching", "retrieval failed")
	critic := okStage("critic", map[string]any{"approved": true})
	o := New(Params{Teaching: teaching, Critic: critic})

	res := o.AskTutor(context.Background(), "What is recursion?")

	if res.Success {
		t.Fatal("expected failure when answer generation fails")
	}
	if len(critic.inputs) != 0 {
		t.Fatal("critic must not run when generation fails")
	}
}
