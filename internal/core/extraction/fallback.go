package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/insuraai/insuraai/internal/models"
)

// Regex heuristics for fields the model missed. These run against the raw
// text in a fixed order and only ever fill fields that are still empty, so
// model output always wins.
var (
	policyNumberRe = regexp.MustCompile(`(?i)Policy\s*(?:Number|No|ID)[:\-]?\s*([A-Za-z0-9\-]+)`)
	dateTokenRe    = regexp.MustCompile(`\d{2}[/\-]\d{2}[/\-]\d{4}`)
	premiumRe      = regexp.MustCompile(`(?i)(?:Premium|Sum Assured|Amount)[:\-]?\s*([\d,]+)`)
	sumInsuredRe   = regexp.MustCompile(`(?i)(?:Sum Insured|Coverage Amount)[:\-]?\s*([\d,]+)`)
	deductibleRe   = regexp.MustCompile(`(?i)(?:Deductible|Co-pay)[:\-]?\s*([\d,]+)`)
)

// ApplyFallback fills any still-empty fields from the raw text. No field is
// fabricated: when no pattern matches, the field stays empty and the caller
// surfaces it for manual completion.
func ApplyFallback(rawText string, fields *models.PolicyFields) {
	if fields.PolicyNumber == "" {
		if m := policyNumberRe.FindStringSubmatch(rawText); m != nil {
			fields.PolicyNumber = m[1]
		}
	}

	// When the model supplied neither date, the first two date-like tokens in
	// document order become start then end.
	if fields.StartDate == "" || fields.EndDate == "" {
		if dates := dateTokenRe.FindAllString(rawText, -1); len(dates) >= 2 {
			if fields.StartDate == "" {
				fields.StartDate = normalizeDate(dates[0])
			}
			if fields.EndDate == "" {
				fields.EndDate = normalizeDate(dates[1])
			}
		}
	}

	if fields.PremiumAmount == "" {
		if m := premiumRe.FindStringSubmatch(rawText); m != nil {
			fields.PremiumAmount = stripCommas(m[1])
		}
	}

	if fields.SumInsured == "" {
		if m := sumInsuredRe.FindStringSubmatch(rawText); m != nil {
			fields.SumInsured = stripCommas(m[1])
		}
	}

	if fields.Deductible == "" {
		if m := deductibleRe.FindStringSubmatch(rawText); m != nil {
			fields.Deductible = stripCommas(m[1])
		}
	}
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// normalizeDate converts a dd/mm/yyyy or dd-mm-yyyy token to ISO YYYY-MM-DD.
// A token that does not parse is returned unchanged rather than discarded.
func normalizeDate(token string) string {
	t, err := time.Parse("02/01/2006", strings.ReplaceAll(token, "-", "/"))
	if err != nil {
		return token
	}
	return t.Format("2006-01-02")
}
