package loader

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/lumen-edu/lumen/pkg/common"
)

// Base64Image is a base64-encoded image with its data URI prefix, ready to
// be embedded into a vision model request.
type Base64Image struct {
	Base64   string `json:"base64"`
	FileType string `json:"file_type"`
}

// FileLoader retrieves the raw bytes of a document. Implementations load
// from the local filesystem, object storage, or other sources.
type FileLoader interface {
	GetFileBytes(ctx context.Context, path string) ([]byte, error)
}

// DocumentParser splits a document source into ordered blocks of text.
type DocumentParser interface {
	Parse(ctx context.Context, source string) ([]common.DocumentBlock, error)
}

// ImageExtractor pulls embedded images out of a document source. The
// returned images live as files on the local filesystem; the cleanup
// function releases them and may be nil when there is nothing to release.
type ImageExtractor interface {
	ExtractImages(ctx context.Context, source string) ([]ExtractedImage, func(), error)
}

// ExtractedImage is a single image extracted from a document, written to a
// local file.
type ExtractedImage struct {
	Path  string
	Page  int
	Index int
}

// GetBase64 reads the extracted image file and encodes it for transmission
// to a vision model.
func (i ExtractedImage) GetBase64() (Base64Image, error) {
	raw, err := os.ReadFile(i.Path)
	if err != nil {
		return Base64Image{}, err
	}
	return Base64Image{
		Base64:   base64.StdEncoding.EncodeToString(raw),
		FileType: Base64Prefix(i.Path),
	}, nil
}

// Base64Prefix returns the data URI prefix for the file's extension,
// falling back to application/octet-stream when the type is unknown.
func Base64Prefix(filePath string) string {
	idx := strings.LastIndex(filePath, ".")
	if idx == -1 {
		return "data:application/octet-stream;base64,"
	}
	mimeType := mime.TypeByExtension(filePath[idx:])
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,", mimeType)
}

// ParserMux routes a document source to the parser that can handle it:
// web URLs go to the Web parser, everything else is treated as a PDF
// document path.
type ParserMux struct {
	Web DocumentParser
	PDF DocumentParser
}

// Parse dispatches to the matching parser based on the source format.
func (m *ParserMux) Parse(ctx context.Context, source string) ([]common.DocumentBlock, error) {
	if IsWebSource(source) {
		if m.Web == nil {
			return nil, fmt.Errorf("no parser configured for web source %s", source)
		}
		return m.Web.Parse(ctx, source)
	}
	if m.PDF == nil {
		return nil, fmt.Errorf("no parser configured for document %s", source)
	}
	return m.PDF.Parse(ctx, source)
}

// IsWebSource reports whether the source is an HTTP or HTTPS URL.
func IsWebSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
