package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/lumen-edu/lumen/pkg/loader"
)

const toolTimeout = 30 * time.Second

// extractText runs pdftotext over the raw PDF bytes and returns the plain
// text output. Page boundaries are preserved as form feed characters so the
// caller can attribute blocks to pages.
func extractText(ctx context.Context, input []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	tCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	cmd := exec.CommandContext(
		tCtx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-q",
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if tCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdftotext timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(out))
	}

	return out, nil
}

// pdfimages with -p names files <root>-PPP-NNN.png
var imageNameRe = regexp.MustCompile(`-(\d+)-(\d+)\.png$`)

// extractImages runs pdfimages over the raw PDF bytes and writes the
// embedded images as PNG files into outDir. The returned list is ordered by
// page, then by position within the page.
func extractImages(ctx context.Context, input []byte, outDir string) ([]loader.ExtractedImage, error) {
	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	if _, err := exec.LookPath("pdfimages"); err != nil {
		return nil, fmt.Errorf("pdfimages not found in PATH: %w", err)
	}

	tCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	cmd := exec.CommandContext(
		tCtx,
		"pdfimages",
		"-p",
		"-png",
		pdfPath,
		filepath.Join(outDir, "img"),
	)

	out, err := cmd.CombinedOutput()
	if tCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdfimages timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("pdfimages failed: %w: %s", err, bytes.TrimSpace(out))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}

	images := make([]loader.ExtractedImage, 0, len(entries))
	for _, e := range entries {
		m := imageNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, _ := strconv.Atoi(m[1])
		index, _ := strconv.Atoi(m[2])
		images = append(images, loader.ExtractedImage{
			Path:  filepath.Join(outDir, e.Name()),
			Page:  page,
			Index: index,
		})
	}

	sort.Slice(images, func(i, j int) bool {
		if images[i].Page != images[j].Page {
			return images[i].Page < images[j].Page
		}
		return images[i].Index < images[j].Index
	})

	return images, nil
}
