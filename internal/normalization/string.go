// Package normalization turns free text into comparable canonical forms.
// Every function is total: malformed input degrades to an empty or best-effort
// value instead of failing.
package normalization

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yungbote/payledger/internal/domain/payments"
)

// ParseInputString lowercases and trims.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// StripDiacritics decomposes to NFD and drops combining marks ("Transacción" -> "Transaccion").
func StripDiacritics(s string) string {
	if s == "" {
		return ""
	}
	// transform chains carry state, so one per call keeps this safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// AlnumUpper strips diacritics, uppercases and keeps only [A-Z0-9].
func AlnumUpper(s string) string {
	s = strings.ToUpper(StripDiacritics(s))
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DigitsTail keeps ASCII digits only and returns the last n of them.
func DigitsTail(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	d := b.String()
	if len(d) <= n {
		return d
	}
	return d[len(d)-n:]
}

var (
	bankingKeywords = regexp.MustCompile(`cbu|cvu|alias|banco`)
	walletToken     = regexp.MustCompile(`^(mp|mercado\s*pago)$`)
	cardKeywords    = regexp.MustCompile(`credit|debit|tarjeta|card|\b(la)?pos\b`)
)

// CanonicalMethod maps a declared payment method onto the closed method set.
// The first matching rule wins: cash, bank transfer, mobile wallet, card.
func CanonicalMethod(raw string) payments.Method {
	t := MethodToken(raw)
	switch {
	case t == "":
		return payments.MethodOther
	case strings.HasPrefix(t, "efec"), strings.HasPrefix(t, "cash"):
		return payments.MethodCash
	case strings.HasPrefix(t, "trans"), bankingKeywords.MatchString(t):
		return payments.MethodBankTransfer
	case walletToken.MatchString(t):
		return payments.MethodMobileWallet
	case cardKeywords.MatchString(t):
		return payments.MethodCard
	default:
		return payments.MethodOther
	}
}

// MethodToken is the lowercased, trimmed, accent-free form of a declared method.
func MethodToken(raw string) string {
	return ParseInputString(StripDiacritics(raw))
}
