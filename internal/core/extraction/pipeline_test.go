package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeTextExtractor returns canned raw text or an error.
type fakeTextExtractor struct {
	text string
	err  error
}

func (f *fakeTextExtractor) ExtractText(_ context.Context, _ string, _ string) (string, error) {
	return f.text, f.err
}

func tempUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	return path
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("uploaded file %s still exists, want removed", path)
	}
}

func TestPipelineRun_Success(t *testing.T) {
	t.Parallel()

	path := tempUpload(t)
	p := NewPipeline(
		&fakeTextExtractor{text: "Policy No: ABC123 Premium: 4,500"},
		NewNormalizer(&fakeLLM{response: "{}"}),
	)

	fields, err := p.Run(context.Background(), path, "application/pdf")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fields.PolicyNumber != "ABC123" {
		t.Errorf("PolicyNumber = %q, want ABC123", fields.PolicyNumber)
	}
	if fields.PremiumAmount != "4500" {
		t.Errorf("PremiumAmount = %q, want 4500", fields.PremiumAmount)
	}
	assertRemoved(t, path)
}

func TestPipelineRun_ExtractorFailureRemovesFile(t *testing.T) {
	t.Parallel()

	path := tempUpload(t)
	p := NewPipeline(
		&fakeTextExtractor{err: errors.New("ocr crashed")},
		NewNormalizer(&fakeLLM{response: "{}"}),
	)

	if _, err := p.Run(context.Background(), path, "image/png"); err == nil {
		t.Fatal("Run() error = nil, want extraction failure")
	}
	assertRemoved(t, path)
}

func TestPipelineRun_ModelFailureRemovesFile(t *testing.T) {
	t.Parallel()

	path := tempUpload(t)
	p := NewPipeline(
		&fakeTextExtractor{text: "some document text"},
		NewNormalizer(&fakeLLM{err: errors.New("network down")}),
	)

	if _, err := p.Run(context.Background(), path, "application/pdf"); err == nil {
		t.Fatal("Run() error = nil, want model failure")
	}
	assertRemoved(t, path)
}

// Fallback must recover everything it can when the model contributes nothing.
func TestPipelineRun_FallbackRecoversFromEmptyModelResponse(t *testing.T) {
	t.Parallel()

	raw := "Policy No: ABC123 terms and conditions Sum Insured: 500,000 " +
		"valid 01/01/2024 to 31/12/2024"

	path := tempUpload(t)
	p := NewPipeline(
		&fakeTextExtractor{text: raw},
		NewNormalizer(&fakeLLM{response: "{}"}),
	)

	fields, err := p.Run(context.Background(), path, "application/pdf")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fields.PolicyNumber != "ABC123" {
		t.Errorf("PolicyNumber = %q, want ABC123", fields.PolicyNumber)
	}
	if fields.SumInsured != "500000" {
		t.Errorf("SumInsured = %q, want 500000", fields.SumInsured)
	}
	if fields.StartDate != "2024-01-01" || fields.EndDate != "2024-12-31" {
		t.Errorf("dates = (%q, %q), want (2024-01-01, 2024-12-31)",
			fields.StartDate, fields.EndDate)
	}
	if fields.Type != "" || fields.PremiumAmount != "" {
		t.Errorf("type/premium = (%q, %q), want both empty",
			fields.Type, fields.PremiumAmount)
	}
	assertRemoved(t, path)
}
