package normalization

import (
	"testing"

	"github.com/yungbote/payledger/internal/domain/payments"
)

func TestStripDiacritics(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"Transacción":          "Transaccion",
		"Débito Crédito":       "Debito Credito",
		"ÑANDÚ":                "NANDU",
		"plain ascii 123":      "plain ascii 123",
	}
	for in, want := range cases {
		if got := StripDiacritics(in); got != want {
			t.Fatalf("StripDiacritics(%q): want %q got %q", in, want, got)
		}
	}
}

func TestAlnumUpper(t *testing.T) {
	cases := map[string]string{
		"AB-12-99":           "AB1299",
		"  coelsa id: x_9 ":  "COELSAIDX9",
		"Peña.Pagos":         "PENAPAGOS",
		"***":                "",
	}
	for in, want := range cases {
		if got := AlnumUpper(in); got != want {
			t.Fatalf("AlnumUpper(%q): want %q got %q", in, want, got)
		}
	}
}

func TestDigitsTail(t *testing.T) {
	if got := DigitsTail("0000003 1000.1234 5678 9012", 12); got != "123456789012" {
		t.Fatalf("tail 12: got %q", got)
	}
	if got := DigitsTail("ab12", 12); got != "12" {
		t.Fatalf("short: got %q", got)
	}
	if got := DigitsTail("no digits", 4); got != "" {
		t.Fatalf("none: got %q", got)
	}
	if got := DigitsTail("12345", 0); got != "" {
		t.Fatalf("zero width: got %q", got)
	}
}

func TestCanonicalMethod(t *testing.T) {
	cases := []struct {
		in   string
		want payments.Method
	}{
		{"Efectivo", payments.MethodCash},
		{"  CASH ", payments.MethodCash},
		{"Transferencia", payments.MethodBankTransfer},
		{"pago por CBU", payments.MethodBankTransfer},
		{"alias banco nación", payments.MethodBankTransfer},
		{"MP", payments.MethodMobileWallet},
		{"Mercado Pago", payments.MethodMobileWallet},
		{"mercadopago", payments.MethodMobileWallet},
		{"Débito", payments.MethodCard},
		{"tarjeta de crédito", payments.MethodCard},
		{"lapos", payments.MethodCard},
		{"POS", payments.MethodCard},
		{"cheque", payments.MethodOther},
		{"", payments.MethodOther},
		{"   ", payments.MethodOther},
	}
	for _, tc := range cases {
		if got := CanonicalMethod(tc.in); got != tc.want {
			t.Fatalf("CanonicalMethod(%q): want %q got %q", tc.in, tc.want, got)
		}
	}
}

func TestMethodToken(t *testing.T) {
	if got := MethodToken("  Cheque Diferido "); got != "cheque diferido" {
		t.Fatalf("got %q", got)
	}
}
