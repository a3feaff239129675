package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumen-edu/lumen/internal/util"
	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/loader"
	"github.com/lumen-edu/lumen/pkg/logger"
)

// ErrExhausted is returned when every configured vision provider has failed
// for a request.
var ErrExhausted = errors.New("all vision providers exhausted")

// VisionClient is the subset of ai.TutorAIClient the executor needs.
type VisionClient interface {
	GenerateImageDescription(
		ctx context.Context,
		prompt string,
		image loader.Base64Image,
	) (string, error)
}

// Provider pairs a vision-capable client with a name used in logs and
// provenance metadata.
type Provider struct {
	Name   string
	Client VisionClient
}

// Executor tries vision providers in their configured order until one
// returns a parseable result. A provider that errors, or that answers with
// something no JSON object can be pulled out of, counts as failed and the
// next provider is tried immediately. There is no retry of a failed
// provider within a request.
type Executor struct {
	providers []Provider
}

// NewExecutor creates an Executor over the given providers. At least one
// provider is required.
func NewExecutor(providers ...Provider) (*Executor, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one vision provider is required")
	}
	return &Executor{providers: providers}, nil
}

// Providers returns the names of the configured providers in order.
func (e *Executor) Providers() []string {
	names := make([]string, len(e.providers))
	for i, p := range e.providers {
		names[i] = p.Name
	}
	return names
}

// Analyze sends the image to the providers in order and unmarshals the
// first parseable JSON answer into out. It returns the name of the provider
// that produced the result, or ErrExhausted when all providers failed.
func (e *Executor) Analyze(
	ctx context.Context,
	prompt string,
	image loader.Base64Image,
	out any,
) (string, error) {
	var lastErr error
	for _, p := range e.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		raw, err := p.Client.GenerateImageDescription(ctx, prompt, image)
		if err != nil {
			logger.Warn("[Vision] provider request failed", "provider", p.Name, "err", err)
			lastErr = err
			continue
		}

		obj, err := ai.ExtractJSONObject(raw)
		if err != nil {
			logger.Warn(
				"[Vision] provider returned no JSON",
				"provider", p.Name,
				"output", util.TruncateForLog(raw, 200),
			)
			lastErr = err
			continue
		}

		if err := ai.UnmarshalFlexible(obj, out); err != nil {
			logger.Warn("[Vision] provider returned unparsable JSON", "provider", p.Name, "err", err)
			lastErr = err
			continue
		}

		return p.Name, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: last error: %v", ErrExhausted, lastErr)
	}
	return "", ErrExhausted
}
