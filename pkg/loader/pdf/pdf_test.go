package pdf

import (
	"testing"
)

func TestSplitBlocks_ParagraphsAndPages(t *testing.T) {
	text := "First paragraph on page one.\n\nSecond paragraph\nspanning two lines.\fOnly paragraph on page two.\n"

	blocks := SplitBlocks(text)

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	if blocks[0].ID != "block_0" || blocks[1].ID != "block_1" || blocks[2].ID != "block_2" {
		t.Fatalf("unexpected block ids: %q %q %q", blocks[0].ID, blocks[1].ID, blocks[2].ID)
	}

	if blocks[0].Page != 1 || blocks[1].Page != 1 {
		t.Fatalf("expected first two blocks on page 1, got %d and %d", blocks[0].Page, blocks[1].Page)
	}
	if blocks[2].Page != 2 {
		t.Fatalf("expected third block on page 2, got %d", blocks[2].Page)
	}

	if blocks[1].Content != "Second paragraph\nspanning two lines." {
		t.Fatalf("unexpected block content: %q", blocks[1].Content)
	}
	for _, b := range blocks {
		if b.Kind != "text" {
			t.Fatalf("expected kind text, got %q", b.Kind)
		}
	}
}

func TestSplitBlocks_SkipsEmptyParagraphs(t *testing.T) {
	text := "\n\n  \n\nOnly real paragraph.\n\n\n\n"

	blocks := SplitBlocks(text)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Content != "Only real paragraph." {
		t.Fatalf("unexpected content: %q", blocks[0].Content)
	}
}

func TestSplitBlocks_Empty(t *testing.T) {
	if blocks := SplitBlocks(""); len(blocks) != 0 {
		t.Fatalf("expected no blocks for empty text, got %d", len(blocks))
	}
}
