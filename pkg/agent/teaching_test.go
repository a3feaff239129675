package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/lumen-edu/lumen/pkg/store"
)

func TestTeachingAgent_AnswersWithContext(t *testing.T) {
	aiClient := &fakeAI{completion: "Recursion is when a function calls itself."}
	vectors := &fakeVectorIndex{matches: []store.VectorMatch{
		{ID: "concept_0", Score: 0.92, Metadata: map[string]any{"name": "recursion", "definition": "a function calling itself"}},
		{ID: "concept_1", Score: 0.81, Metadata: map[string]any{"name": "base case", "definition": "the stopping condition"}},
	}}
	a := NewTeachingAgent(aiClient, lazyVectors(vectors))

	res := a.Run(context.Background(), map[string]any{"query": "What is recursion?"})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["response"] != "Recursion is when a function calls itself." {
		t.Fatalf("unexpected response: %v", res.Payload["response"])
	}

	used := res.Payload["context_used"].([]string)
	if len(used) != 2 || used[0] != "recursion" {
		t.Fatalf("unexpected context_used: %v", used)
	}

	if !strings.Contains(aiClient.lastPrompt, "a function calling itself") {
		t.Fatal("expected retrieved definitions in the prompt")
	}
	if !strings.Contains(aiClient.lastPrompt, "What is recursion?") {
		t.Fatal("expected query in the prompt")
	}
}

func TestTeachingAgent_PromptConstrainsToMaterial(t *testing.T) {
	aiClient := &fakeAI{completion: "answer"}
	vectors := &fakeVectorIndex{matches: []store.VectorMatch{
		{ID: "concept_0", Score: 0.9, Metadata: map[string]any{"name": "recursion", "definition": "a function calling itself"}},
	}}
	a := NewTeachingAgent(aiClient, lazyVectors(vectors))

	res := a.Run(context.Background(), map[string]any{"query": "What is recursion?"})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	// The tutor must be held to the retrieved material and asked for the
	// two-part explanation plus follow-up question format.
	if !strings.Contains(aiClient.lastPrompt, "ONLY the material") {
		t.Fatal("expected the prompt to restrict the answer to the retrieved material")
	}
	for _, marker := range []string{"**Explanation:**", "**Follow-up Question:**"} {
		if !strings.Contains(aiClient.lastPrompt, marker) {
			t.Fatalf("expected the prompt to request the %s section", marker)
		}
	}
}

func TestTeachingAgent_NoMatches(t *testing.T) {
	aiClient := &fakeAI{completion: "General knowledge answer."}
	a := NewTeachingAgent(aiClient, lazyVectors(&fakeVectorIndex{}))

	res := a.Run(context.Background(), map[string]any{"query": "What is recursion?"})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Payload["context_used"].([]string)) != 0 {
		t.Fatal("expected empty context_used")
	}
	if !strings.Contains(aiClient.lastPrompt, noContextMessage) {
		t.Fatal("expected the no-context marker in the prompt")
	}
}

func TestTeachingAgent_IndexUnavailable(t *testing.T) {
	a := NewTeachingAgent(&fakeAI{}, brokenLazyVectors())

	res := a.Run(context.Background(), map[string]any{"query": "What is recursion?"})
	if res.Success {
		t.Fatal("expected failure when the index cannot be built")
	}
}

func TestTeachingAgent_RequiresQuery(t *testing.T) {
	a := NewTeachingAgent(&fakeAI{}, lazyVectors(&fakeVectorIndex{}))

	if res := a.Run(context.Background(), map[string]any{"query": "   "}); res.Success {
		t.Fatal("expected failure for blank query")
	}
}
