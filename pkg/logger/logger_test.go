package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With(String("component", "test"))

	l.Info("stock computed",
		String("ticker", "AAPL"),
		Int("years", 5),
		Float64("price", 189.5),
		Bool("stale", false),
		Duration("took", 1500*time.Millisecond),
		Strings("tickers", []string{"AAPL", "MSFT"}),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	checks := map[string]interface{}{
		"component": "test",
		"ticker":    "AAPL",
		"years":     float64(5),
		"price":     189.5,
		"stale":     false,
		"took":      float64(1500),
		"tickers":   "AAPL, MSFT",
		"error":     "boom",
		"message":   "stock computed",
		"level":     "info",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Fatalf("field %s: got %v want %v", k, got[k], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Error("nothing", String("k", "v"))
}
