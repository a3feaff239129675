package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/lumen-edu/lumen/pkg/common"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"
)

// BlockParser fetches web pages and turns their readable content into
// ordered text blocks. HTML pages go through readability to strip
// navigation and boilerplate; other content types are used as-is.
type BlockParser struct {
	client *http.Client

	cache   map[string][]common.DocumentBlock
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewBlockParser creates a web block parser. A nil client falls back to
// http.DefaultClient.
func NewBlockParser(client *http.Client) *BlockParser {
	if client == nil {
		client = http.DefaultClient
	}
	return &BlockParser{
		client: client,
		cache:  make(map[string][]common.DocumentBlock),
	}
}

// Parse fetches the URL and splits the extracted text into paragraph
// blocks. Web pages have no page structure, so every block is on page 1.
func (p *BlockParser) Parse(ctx context.Context, source string) ([]common.DocumentBlock, error) {
	p.cacheMu.RLock()
	if cached, ok := p.cache[source]; ok {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	result, err, _ := p.group.Do(source, func() (any, error) {
		text, err := p.fetchText(ctx, source)
		if err != nil {
			return nil, err
		}

		blocks := splitBlocks(text)

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

func (p *BlockParser) fetchText(ctx context.Context, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, source)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("failed to parse url: %w", err)
		}
		article, err := readability.FromReader(resp.Body, u)
		if err != nil {
			return "", fmt.Errorf("failed to parse html: %w", err)
		}
		var builder strings.Builder
		if err := article.RenderText(&builder); err != nil {
			return "", fmt.Errorf("failed to render article text: %w", err)
		}
		return builder.String(), nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func splitBlocks(text string) []common.DocumentBlock {
	blocks := make([]common.DocumentBlock, 0)
	ordinal := 0

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, common.DocumentBlock{
			ID:      fmt.Sprintf("block_%d", ordinal),
			Kind:    "text",
			Content: para,
			Page:    1,
		})
		ordinal++
	}

	return blocks
}
