package agent

import (
	"context"
	"fmt"
)

// Result is the uniform outcome envelope every pipeline stage returns.
// Success reports whether the stage completed; Payload carries the stage's
// outputs keyed by name; Meta carries diagnostics that are not inputs to
// later stages (token counts, write errors, provider names).
type Result struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload"`
	Meta    map[string]any `json:"meta,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Stage is a single step of the document or query pipeline. Stages are
// stateless between runs; everything they need arrives in the input map.
type Stage interface {
	Name() string
	Run(ctx context.Context, input map[string]any) Result
}

// Success builds a successful result with the given payload.
func Success(payload map[string]any) Result {
	return Result{Success: true, Payload: payload}
}

// Failure builds a failed result carrying the given message.
func Failure(message string) Result {
	return Result{Success: false, Payload: map[string]any{}, Error: message}
}

// Failuref builds a failed result with a formatted message.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}
