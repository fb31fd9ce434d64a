package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// TickerVariant swaps the share-class separator: BRK.B <-> BRK-B.
// It returns "" when the ticker has neither separator.
func TickerVariant(ticker string) string {
	switch {
	case strings.Contains(ticker, "."):
		return strings.ReplaceAll(ticker, ".", "-")
	case strings.Contains(ticker, "-"):
		return strings.ReplaceAll(ticker, "-", ".")
	}
	return ""
}

// PadCIK left-pads a central index key to the 10-digit form used in EDGAR URLs.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// IsCurrencyCode reports whether unit looks like an ISO 4217 code.
func IsCurrencyCode(unit string) bool {
	if len(unit) != 3 {
		return false
	}
	for _, r := range unit {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// QuoteSymbol maps a SEC-style ticker to the dash form quote vendors use.
func QuoteSymbol(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}
