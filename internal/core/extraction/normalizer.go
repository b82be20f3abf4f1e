package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

// systemPrompt instructs the model to map the synonym soup found on real
// policy schedules onto the seven-key schema.
const systemPrompt = `You are an assistant that extracts insurance policy details from text.
Look for equivalent terms, synonyms, or variations:

- policyNumber -> may appear as Policy No., Policy No, Policy ID, Reference No
- type -> Life, Health, Motor, Car, Travel, or inferred from context
- premiumAmount -> may appear as Basic Premium, Total Premium, Total Premium (Including taxes), Premium, Annual Premium, etc.
- sumInsured -> may appear as Sum Insured, Coverage Amount, Insured Amount, Maximum Benefit, Coverage Limit, etc.
- deductible -> may appear as Deductible, Excess, Out-of-pocket, Deductible Amount, Co-pay, etc.
- startDate -> may appear as Policy Start Date, Valid From, Period of Insurance (first date)
- endDate -> may appear as Policy End Date, Valid Till, Period of Insurance (second date)

Return ONLY normalized JSON in this format:
{
  "policyNumber": "...",
  "type": "...",
  "premiumAmount": "...",
  "sumInsured": "...",
  "deductible": "...",
  "startDate": "YYYY-MM-DD",
  "endDate": "YYYY-MM-DD"
}`

// Normalizer sends raw document text to the language model and parses the
// response into the normalized field set.
type Normalizer struct {
	llm core.LLMProvider
}

func NewNormalizer(llm core.LLMProvider) *Normalizer {
	return &Normalizer{llm: llm}
}

// Normalize returns the model's view of the seven fields. A model-call
// failure is a hard error; a malformed response is not — it degrades to an
// empty field set because the regex fallback runs next.
func (n *Normalizer) Normalize(ctx context.Context, rawText string) (models.PolicyFields, error) {
	out, err := n.llm.Generate(ctx, systemPrompt, rawText)
	if err != nil {
		return models.PolicyFields{}, fmt.Errorf("normalize fields: %w", err)
	}
	return parseModelResponse(out), nil
}

// parseModelResponse strips any code-fence wrapping and decodes the JSON
// object. Anything unparseable yields empty fields.
func parseModelResponse(content string) models.PolicyFields {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.ReplaceAll(content, "```json", "")
		content = strings.ReplaceAll(content, "```", "")
		content = strings.TrimSpace(content)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		log.Printf("failed to parse model response: %v", err)
		return models.PolicyFields{}
	}

	return models.PolicyFields{
		PolicyNumber:  fieldString(m, "policyNumber"),
		Type:          fieldString(m, "type"),
		PremiumAmount: fieldString(m, "premiumAmount"),
		SumInsured:    fieldString(m, "sumInsured"),
		Deductible:    fieldString(m, "deductible"),
		StartDate:     fieldString(m, "startDate"),
		EndDate:       fieldString(m, "endDate"),
	}
}

// fieldString coerces a decoded JSON value to its string form. Models
// occasionally return bare numbers for the money fields.
func fieldString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
