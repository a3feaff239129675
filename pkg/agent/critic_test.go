package agent

import (
	"context"
	"errors"
	"testing"
)

func TestCriticAgent_Approves(t *testing.T) {
	a := NewCriticAgent(&fakeAI{completion: "APPROVED"})

	res := a.Run(context.Background(), map[string]any{
		"response":     "Recursion is a function calling itself.",
		"context_text": "Concept: recursion",
	})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["approved"] != true {
		t.Fatalf("approved = %v, want true", res.Payload["approved"])
	}
}

func TestCriticAgent_ApprovesWithSurroundingText(t *testing.T) {
	a := NewCriticAgent(&fakeAI{completion: "The answer is accurate. APPROVED."})

	res := a.Run(context.Background(), map[string]any{"response": "answer"})
	if res.Payload["approved"] != true {
		t.Fatal("expected approval token anywhere in the critique to count")
	}
}

func TestCriticAgent_Rejects(t *testing.T) {
	critique := "The answer confuses recursion with iteration in the second paragraph."
	a := NewCriticAgent(&fakeAI{completion: critique})

	res := a.Run(context.Background(), map[string]any{"response": "answer"})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Payload["approved"] != false {
		t.Fatalf("approved = %v, want false", res.Payload["approved"])
	}
	if res.Payload["critique"] != critique {
		t.Fatalf("unexpected critique: %v", res.Payload["critique"])
	}
}

func TestCriticAgent_ModelFailure(t *testing.T) {
	a := NewCriticAgent(&fakeAI{completionErr: errors.New("model overloaded")})

	if res := a.Run(context.Background(), map[string]any{"response": "answer"}); res.Success {
		t.Fatal("expected failure when the critique model errors")
	}
}

func TestCriticAgent_RequiresResponse(t *testing.T) {
	a := NewCriticAgent(&fakeAI{})

	if res := a.Run(context.Background(), map[string]any{}); res.Success {
		t.Fatal("expected failure without a response to review")
	}
}
