package agent

import (
	"context"
	"path/filepath"
	"time"

	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/loader"
	"github.com/lumen-edu/lumen/pkg/logger"
)

// Images beyond this cap are ignored; vision calls are the most expensive
// step of ingestion.
const maxImagesPerDocument = 5

// VisionExecutor analyzes one image and unmarshals the model's JSON answer
// into out. It returns the name of the provider that produced the result.
type VisionExecutor interface {
	Analyze(ctx context.Context, prompt string, image loader.Base64Image, out any) (string, error)
}

// VisionAgent extracts images from a document and runs each through the
// vision provider chain to obtain structured visual concepts.
type VisionAgent struct {
	extractor loader.ImageExtractor
	executor  VisionExecutor
	delay     time.Duration
}

// NewVisionAgent creates a vision agent. delay is the pause inserted
// between consecutive image requests to stay under provider rate limits.
func NewVisionAgent(extractor loader.ImageExtractor, executor VisionExecutor, delay time.Duration) *VisionAgent {
	return &VisionAgent{
		extractor: extractor,
		executor:  executor,
		delay:     delay,
	}
}

func (a *VisionAgent) Name() string { return "visual-concepts" }

// Run analyzes up to maxImagesPerDocument images from
// input["document_path"]. A document without images succeeds with an empty
// result. Per-image analysis failures are logged and skipped; only failing
// to get at the images at all fails the stage.
func (a *VisionAgent) Run(ctx context.Context, input map[string]any) Result {
	source, ok := input["document_path"].(string)
	if !ok || source == "" {
		return Failure("visual concept extraction requires a document_path")
	}

	images, cleanup, err := a.extractor.ExtractImages(ctx, source)
	if err != nil {
		return Failuref("failed to extract images: %v", err)
	}
	if cleanup != nil {
		// The extracted files are only needed for this run.
		defer cleanup()
	}

	found := len(images)
	if found == 0 {
		return Success(map[string]any{
			"visual_concepts": []common.VisionConcept{},
			"images_found":    0,
		})
	}
	if len(images) > maxImagesPerDocument {
		images = images[:maxImagesPerDocument]
	}

	concepts := make([]common.VisionConcept, 0, len(images))
	providers := make(map[string]int)

	for i, img := range images {
		if i > 0 && a.delay > 0 {
			select {
			case <-ctx.Done():
				return Failuref("visual concept extraction canceled: %v", ctx.Err())
			case <-time.After(a.delay):
			}
		}

		b64, err := img.GetBase64()
		if err != nil {
			logger.Warn("[Vision] could not read extracted image", "path", img.Path, "err", err)
			continue
		}

		var vc common.VisionConcept
		provider, err := a.executor.Analyze(ctx, visionPrompt, b64, &vc)
		if err != nil {
			if ctx.Err() != nil {
				return Failuref("visual concept extraction canceled: %v", ctx.Err())
			}
			logger.Warn("[Vision] image analysis failed", "path", img.Path, "page", img.Page, "err", err)
			continue
		}

		vc.Page = img.Page
		vc.ImageRef = filepath.Base(img.Path)
		concepts = append(concepts, vc)
		providers[provider]++
	}

	logger.Info(
		"[Vision] analysis complete",
		"source", source,
		"images_found", found,
		"analyzed", len(concepts),
	)

	return Result{
		Success: true,
		Payload: map[string]any{
			"visual_concepts": concepts,
			"images_found":    found,
		},
		Meta: map[string]any{
			"providers": providers,
		},
	}
}
