// Package fingerprint derives the deduplication key of a payment submission.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/payledger/internal/normalization"
)

// AccountTailDigits is how many trailing account digits take part in a payer fingerprint.
const AccountTailDigits = 12

// Only labeled values are trusted; a bare number in OCR text never becomes a strong id.
var (
	clearingPattern    = regexp.MustCompile(`(?i)COELSA\s*ID[:\s]*([A-Z0-9\-]+)`)
	transactionPattern = regexp.MustCompile(`(?i)ID\s+de\s+la\s+transacci[oó]n[:\s]*([A-Z0-9\-]+)`)
	accountPattern     = regexp.MustCompile(`(?i)\b(?:CBU|CVU)\b[:\s]*([0-9.\s]+)`)
)

// StrongIDs holds the identifiers found in a submission. Empty fields were not found.
type StrongIDs struct {
	ClearingID    string `json:"clearingId,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	AccountTail   string `json:"accountTail,omitempty"`
	PayerAlias    string `json:"payerAlias,omitempty"`
}

// SearchBlob joins reference, hints JSON and OCR transcript into the text the patterns scan.
func SearchBlob(reference, ocrText string, hints map[string]any) string {
	parts := make([]string, 0, 3)
	if reference != "" {
		parts = append(parts, reference)
	}
	if len(hints) > 0 {
		if b, err := json.Marshal(hints); err == nil {
			parts = append(parts, string(b))
		}
	}
	if ocrText != "" {
		parts = append(parts, ocrText)
	}
	return strings.Join(parts, "  ")
}

// Extract scans the submission text for strong identifiers.
func Extract(reference, ocrText string, hints map[string]any) StrongIDs {
	blob := normalization.StripDiacritics(SearchBlob(reference, ocrText, hints))

	var out StrongIDs
	out.ClearingID = firstLabeled(clearingPattern, blob, normalization.AlnumUpper)
	out.TransactionID = firstLabeled(transactionPattern, blob, normalization.AlnumUpper)
	out.AccountTail = firstLabeled(accountPattern, blob, func(s string) string {
		return normalization.DigitsTail(s, AccountTailDigits)
	})
	if alias := HintString(hints, "alias"); alias != "" {
		out.PayerAlias = strings.ToLower(strings.TrimSpace(normalization.StripDiacritics(alias)))
	}
	return out
}

func firstLabeled(re *regexp.Regexp, blob string, normalize func(string) string) string {
	for _, m := range re.FindAllStringSubmatch(blob, -1) {
		if len(m) < 2 {
			continue
		}
		if v := normalize(m[1]); v != "" {
			return v
		}
	}
	return ""
}

// HintString reads a parser hint as text. Missing keys and nulls read as "".
func HintString(hints map[string]any, key string) string {
	if hints == nil {
		return ""
	}
	switch v := hints[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
