package orchestrator

import (
	"context"

	"github.com/lumen-edu/lumen/pkg/agent"
	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/logger"
)

// reviewWarning is attached verbatim to answers the critic flagged. The
// answer itself is returned unchanged; flagging never rewrites it.
const reviewWarning = "Response may need improvement."

// Orchestrator wires the pipeline stages together. Document ingestion runs
// parsing, concept extraction, visual extraction, and relation mapping;
// queries run answer generation and critique.
type Orchestrator struct {
	parsing   agent.Stage
	concepts  agent.Stage
	vision    agent.Stage
	relations agent.Stage
	teaching  agent.Stage
	critic    agent.Stage
}

// Params lists the stages an Orchestrator coordinates.
type Params struct {
	Parsing   agent.Stage
	Concepts  agent.Stage
	Vision    agent.Stage
	Relations agent.Stage
	Teaching  agent.Stage
	Critic    agent.Stage
}

// New creates an orchestrator over the given stages.
func New(params Params) *Orchestrator {
	return &Orchestrator{
		parsing:   params.Parsing,
		concepts:  params.Concepts,
		vision:    params.Vision,
		relations: params.Relations,
		teaching:  params.Teaching,
		critic:    params.Critic,
	}
}

// IngestDocument runs the document pipeline. Parsing and concept
// extraction are hard dependencies: their failure aborts the run and their
// result is returned as-is. Visual extraction and relation mapping degrade
// instead, so a flaky vision provider or relation model cannot block text
// ingestion. Text concepts precede visual concepts in the merged set, and
// no deduplication is applied.
func (o *Orchestrator) IngestDocument(ctx context.Context, documentPath string) agent.Result {
	logger.Info("[Ingest] starting", "document", documentPath)
	input := map[string]any{"document_path": documentPath}

	parseRes := o.parsing.Run(ctx, input)
	if !parseRes.Success {
		logger.Error("[Ingest] parsing failed", "document", documentPath, "err", parseRes.Error)
		return parseRes
	}

	conceptRes := o.concepts.Run(ctx, map[string]any{"blocks": parseRes.Payload["blocks"]})
	if !conceptRes.Success {
		logger.Error("[Ingest] concept extraction failed", "document", documentPath, "err", conceptRes.Error)
		return conceptRes
	}
	textConcepts, _ := conceptRes.Payload["concepts"].([]common.Concept)

	meta := map[string]any{}
	if wr, ok := conceptRes.Meta["write_errors"]; ok {
		meta["write_errors"] = wr
	}

	visionRes := o.vision.Run(ctx, input)
	var visualConcepts []common.VisionConcept
	if visionRes.Success {
		visualConcepts, _ = visionRes.Payload["visual_concepts"].([]common.VisionConcept)
	} else {
		logger.Warn("[Ingest] visual extraction degraded", "document", documentPath, "err", visionRes.Error)
		meta["vision_error"] = visionRes.Error
	}

	merged := make([]common.Concept, 0, len(textConcepts)+len(visualConcepts))
	merged = append(merged, textConcepts...)
	for _, vc := range visualConcepts {
		merged = append(merged, vc.ToConcept())
	}

	relations := []common.Relation{}
	relationsRejected := 0
	if len(merged) > 0 {
		relRes := o.relations.Run(ctx, map[string]any{"concepts": merged})
		if relRes.Success {
			relations, _ = relRes.Payload["relations"].([]common.Relation)
			if n, ok := relRes.Payload["relations_rejected"].(int); ok {
				relationsRejected = n
			}
		} else {
			logger.Warn("[Ingest] relation mapping degraded", "document", documentPath, "err", relRes.Error)
			meta["relations_error"] = relRes.Error
		}
	}

	logger.Info(
		"[Ingest] complete",
		"document", documentPath,
		"concepts", len(merged),
		"relations", len(relations),
	)

	return agent.Result{
		Success: true,
		Payload: map[string]any{
			"document_path":      documentPath,
			"blocks":             parseRes.Payload["block_count"],
			"concepts_count":     len(merged),
			"text_concepts":      len(textConcepts),
			"visual_concepts":    len(visualConcepts),
			"indexed_concepts":   conceptRes.Payload["indexed_concepts"],
			"relations_count":    len(relations),
			"relations_rejected": relationsRejected,
		},
		Meta: meta,
	}
}

// AskTutor runs the query pipeline: generate an answer, then have the
// critic review it. An approved answer passes through untouched; a flagged
// answer is still returned byte-identical, with the critique and a fixed
// warning attached. There is no regeneration. A failing critic is treated
// as "cannot review", not as rejection.
func (o *Orchestrator) AskTutor(ctx context.Context, query string) agent.Result {
	teachRes := o.teaching.Run(ctx, map[string]any{"query": query})
	if !teachRes.Success {
		logger.Error("[Ask] answer generation failed", "err", teachRes.Error)
		return teachRes
	}

	criticRes := o.critic.Run(ctx, map[string]any{
		"response":     teachRes.Payload["response"],
		"context_text": teachRes.Payload["context_text"],
	})
	if !criticRes.Success {
		logger.Warn("[Ask] critique unavailable, returning unreviewed answer", "err", criticRes.Error)
		if teachRes.Meta == nil {
			teachRes.Meta = map[string]any{}
		}
		teachRes.Meta["critique_error"] = criticRes.Error
		return teachRes
	}

	if approved, _ := criticRes.Payload["approved"].(bool); approved {
		return teachRes
	}

	return agent.Result{
		Success: true,
		Payload: map[string]any{
			"response":     teachRes.Payload["response"],
			"context_used": teachRes.Payload["context_used"],
			"critique":     criticRes.Payload["critique"],
			"warning":      reviewWarning,
		},
	}
}
