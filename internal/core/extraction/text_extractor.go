package extraction

import (
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv"

	"github.com/insuraai/insuraai/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor recovers raw text from uploaded policy documents.
// PDFs go through the embedded text layer; raster images go through
// tesseract OCR (English). Both paths are best-effort text recovery with no
// structural interpretation.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) ExtractText(ctx context.Context, path string, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	res, err := docconv.Convert(f, contentType, false)
	if err != nil {
		return "", fmt.Errorf("extract text (%s): %w", contentType, err)
	}
	return res.Body, nil
}
