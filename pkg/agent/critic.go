package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumen-edu/lumen/pkg/ai"
)

// The critique model signals acceptance by including this token anywhere
// in its reply.
const approvalToken = "APPROVED"

// CriticAgent reviews a generated answer against the material it was based
// on and decides whether it is fit to show a student.
type CriticAgent struct {
	ai ai.TutorAIClient
}

// NewCriticAgent creates a critic agent.
func NewCriticAgent(aiClient ai.TutorAIClient) *CriticAgent {
	return &CriticAgent{ai: aiClient}
}

func (a *CriticAgent) Name() string { return "critic" }

// Run reviews input["response"] against input["context_text"]. The
// critique runs at temperature 0 so the same answer gets the same verdict.
func (a *CriticAgent) Run(ctx context.Context, input map[string]any) Result {
	response, ok := input["response"].(string)
	if !ok || response == "" {
		return Failure("critique requires a response")
	}
	contextText, _ := input["context_text"].(string)

	prompt := fmt.Sprintf(criticPrompt, contextText, response)
	critique, err := a.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.0))
	if err != nil {
		return Failuref("critique failed: %v", err)
	}

	return Success(map[string]any{
		"approved": strings.Contains(critique, approvalToken),
		"critique": critique,
	})
}
