package envutil

import (
	"testing"
	"time"
)

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("PL_TEST_DUR", "45")
	if got := Duration("PL_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("seconds: got %v", got)
	}
	t.Setenv("PL_TEST_DUR", "2m")
	if got := Duration("PL_TEST_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("go syntax: got %v", got)
	}
	t.Setenv("PL_TEST_DUR", "soon")
	if got := Duration("PL_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("invalid: got %v", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("PL_TEST_BOOL", "off")
	if Bool("PL_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("PL_TEST_LIST", " a, ,b ")
	got := List("PL_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("list: got %#v", got)
	}
	if got := Int("PL_TEST_MISSING_INT", 7); got != 7 {
		t.Fatalf("int default: got %d", got)
	}
}
