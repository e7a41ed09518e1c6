package fingerprint

import (
	"testing"
	"time"
)

func TestTimeParserDayFirst(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	p := NewTimeParser(loc)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"14/03/2025":       time.Date(2025, 3, 14, 0, 0, 0, 0, loc),
		"4-3-25":           time.Date(2025, 3, 4, 0, 0, 0, 0, loc),
		"14/03/2025 9:05":  time.Date(2025, 3, 14, 9, 5, 0, 0, loc),
		" 01/12/24 23:59 ": time.Date(2024, 12, 1, 23, 59, 0, 0, loc),
	}
	for in, want := range cases {
		if got := p.Parse(in, at); !got.Equal(want) {
			t.Fatalf("Parse(%q): want %s got %s", in, want, got)
		}
	}
}

func TestTimeParserFreeForm(t *testing.T) {
	p := NewTimeParser(time.UTC)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := p.Parse("2025-03-14T10:30:00Z", at)
	if want := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("rfc3339: want %s got %s", want, got)
	}
}

func TestTimeParserFallsBackToNow(t *testing.T) {
	p := NewTimeParser(time.UTC)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "   ", "not-a-date"} {
		if got := p.Parse(in, at); !got.Equal(at) {
			t.Fatalf("Parse(%q): want fallback %s got %s", in, at, got)
		}
	}
}
