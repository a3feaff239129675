package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lumen-edu/lumen/pkg/common"
	"github.com/lumen-edu/lumen/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// BlockParser turns PDF documents into ordered text blocks. Text is
// extracted with pdftotext; each non-empty paragraph becomes one block
// tagged with its page number.
type BlockParser struct {
	loader loader.FileLoader

	cache   map[string][]common.DocumentBlock
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewBlockParser creates a PDF block parser reading document bytes through
// the given file loader.
func NewBlockParser(fileLoader loader.FileLoader) *BlockParser {
	return &BlockParser{
		loader: fileLoader,
		cache:  make(map[string][]common.DocumentBlock),
	}
}

// Parse extracts the document's text and splits it into paragraph blocks.
// Results are cached per source path.
func (p *BlockParser) Parse(ctx context.Context, source string) ([]common.DocumentBlock, error) {
	p.cacheMu.RLock()
	if cached, ok := p.cache[source]; ok {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	result, err, _ := p.group.Do(source, func() (any, error) {
		content, err := p.loader.GetFileBytes(ctx, source)
		if err != nil {
			return nil, err
		}

		text, err := extractText(ctx, content)
		if err != nil {
			return nil, err
		}

		blocks := SplitBlocks(string(text))

		p.cacheMu.Lock()
		p.cache[source] = blocks
		p.cacheMu.Unlock()

		return blocks, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]common.DocumentBlock), nil
}

// SplitBlocks splits extracted PDF text into paragraph blocks. Form feeds
// mark page boundaries; blank lines separate paragraphs within a page.
func SplitBlocks(text string) []common.DocumentBlock {
	blocks := make([]common.DocumentBlock, 0)
	ordinal := 0

	for pageIdx, page := range strings.Split(text, "\f") {
		for _, para := range strings.Split(page, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			blocks = append(blocks, common.DocumentBlock{
				ID:      fmt.Sprintf("block_%d", ordinal),
				Kind:    "text",
				Content: para,
				Page:    pageIdx + 1,
			})
			ordinal++
		}
	}

	return blocks
}

// ImageParser extracts embedded images from PDF documents into a working
// directory on the local filesystem.
type ImageParser struct {
	loader loader.FileLoader
}

// NewImageParser creates a PDF image extractor reading document bytes
// through the given file loader.
func NewImageParser(fileLoader loader.FileLoader) *ImageParser {
	return &ImageParser{loader: fileLoader}
}

// ExtractImages pulls embedded images out of the document as PNG files in
// a fresh temp directory. Web URLs have no extractable images and yield an
// empty list. The cleanup function removes the directory; callers must
// invoke it once they are done with the files.
func (p *ImageParser) ExtractImages(ctx context.Context, source string) ([]loader.ExtractedImage, func(), error) {
	if loader.IsWebSource(source) {
		return nil, nil, nil
	}

	content, err := p.loader.GetFileBytes(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	outDir, err := os.MkdirTemp("", "lumen-images-")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	images, err := extractImages(ctx, content, outDir)
	if err != nil {
		os.RemoveAll(outDir)
		return nil, nil, err
	}

	cleanup := func() { os.RemoveAll(outDir) }
	return images, cleanup, nil
}
