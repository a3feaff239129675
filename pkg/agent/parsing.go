package agent

import (
	"context"

	"github.com/lumen-edu/lumen/pkg/loader"
	"github.com/lumen-edu/lumen/pkg/logger"
)

// ParsingAgent turns a document source (local path, object key, or URL)
// into ordered text blocks.
type ParsingAgent struct {
	parser loader.DocumentParser
}

// NewParsingAgent creates a parsing agent on top of the given parser.
func NewParsingAgent(parser loader.DocumentParser) *ParsingAgent {
	return &ParsingAgent{parser: parser}
}

func (a *ParsingAgent) Name() string { return "parsing" }

// Run parses input["document_path"] into blocks. A document that yields no
// text at all is a failure; the rest of the pipeline has nothing to work
// with.
func (a *ParsingAgent) Run(ctx context.Context, input map[string]any) Result {
	source, ok := input["document_path"].(string)
	if !ok || source == "" {
		return Failure("parsing requires a document_path")
	}

	blocks, err := a.parser.Parse(ctx, source)
	if err != nil {
		return Failuref("failed to parse document: %v", err)
	}
	if len(blocks) == 0 {
		return Failure("document produced no text blocks")
	}

	logger.Info("[Parsing] document parsed", "source", source, "blocks", len(blocks))

	return Success(map[string]any{
		"blocks":      blocks,
		"block_count": len(blocks),
	})
}
