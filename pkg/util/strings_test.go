package util

import "testing"

func TestTickerHelpers(t *testing.T) {
	if got := NormalizeTicker("  brk.b "); got != "BRK.B" {
		t.Fatalf("got %q", got)
	}
	cases := map[string]string{"BRK.B": "BRK-B", "BF-B": "BF.B", "AAPL": ""}
	for in, want := range cases {
		if got := TickerVariant(in); got != want {
			t.Fatalf("TickerVariant(%q) = %q, want %q", in, got, want)
		}
	}
	if got := PadCIK("320193"); got != "0000320193" {
		t.Fatalf("got %q", got)
	}
}

func TestIsCurrencyCode(t *testing.T) {
	for _, u := range []string{"USD", "EUR", "JPY"} {
		if !IsCurrencyCode(u) {
			t.Fatalf("%s should be a currency", u)
		}
	}
	for _, u := range []string{"shares", "pure", "USD/shares", "usd", ""} {
		if IsCurrencyCode(u) {
			t.Fatalf("%s should not be a currency", u)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("3", 7) != 3 {
		t.Fatalf("unexpected")
	}
}

func TestQuoteSymbol(t *testing.T) {
	if got := QuoteSymbol("brk.b"); got != "BRK-B" {
		t.Fatalf("got %q", got)
	}
}
