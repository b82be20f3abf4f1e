package extraction

import (
	"context"
	"log"
	"os"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

// Pipeline sequences text recovery, model normalization, and regex fallback
// for one uploaded document.
type Pipeline struct {
	extractor  core.TextExtractor
	normalizer *Normalizer
}

func NewPipeline(extractor core.TextExtractor, normalizer *Normalizer) *Pipeline {
	return &Pipeline{extractor: extractor, normalizer: normalizer}
}

// Run extracts the normalized field set from the file at path. The temporary
// upload is removed exactly once, on success and on every failure path.
// Partial results are valid output: empty fields are never an error.
func (p *Pipeline) Run(ctx context.Context, path string, contentType string) (models.PolicyFields, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove upload %s: %v", path, err)
		}
	}()

	rawText, err := p.extractor.ExtractText(ctx, path, contentType)
	if err != nil {
		return models.PolicyFields{}, err
	}

	fields, err := p.normalizer.Normalize(ctx, rawText)
	if err != nil {
		return models.PolicyFields{}, err
	}

	ApplyFallback(rawText, &fields)

	return fields, nil
}
