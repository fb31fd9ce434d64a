package logger

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	sent    chan struct{}
	closed  bool
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{sent: make(chan struct{}, 8)}
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	p.mu.Unlock()
	p.sent <- struct{}{}
	return nil
}

func (p *capturePublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func TestCollectorCountsRepeatedWarnings(t *testing.T) {
	pub := newCapturePublisher()
	c := NewLogCollector(&CollectionConfig{CountThreshold: 100, Topic: "valuecheck.logs", Publisher: pub})
	l := NewWriter(io.Discard, zerolog.DebugLevel).With(String("component", "quotes")).WithCollector(c)

	for i := 0; i < 3; i++ {
		l.Warn("quote source failed", String("source", "yahoo"))
	}
	l.Error("quote source failed", String("source", "fmp"))
	l.Info("not collected")
	if got := c.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("batches = %+v", pub.batches)
	}
	if pub.topics[0] != "valuecheck.logs" {
		t.Fatalf("topic = %s", pub.topics[0])
	}
	for _, e := range pub.batches[0] {
		if e.Fields["component"] != "quotes" {
			t.Fatalf("missing logger field: %+v", e.Fields)
		}
		want := 1
		if e.Level == "warn" {
			want = 3
		}
		if e.Count != want {
			t.Fatalf("%s count = %d, want %d", e.Level, e.Count, want)
		}
		if e.Caller == "" {
			t.Fatalf("caller not recorded")
		}
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := newCapturePublisher()
	c := NewLogCollector(&CollectionConfig{CountThreshold: 2, Topic: "t", Publisher: pub})
	defer c.Close()

	c.AddLog("warn", "a", nil, "")
	c.AddLog("warn", "b", nil, "")
	select {
	case <-pub.sent:
	case <-time.After(time.Second):
		t.Fatalf("threshold did not flush")
	}
	if got := c.Pending(); got != 0 {
		t.Fatalf("pending = %d after flush", got)
	}
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := newCapturePublisher()
	c := NewLogCollector(&CollectionConfig{TimeInterval: 10 * time.Millisecond, CountThreshold: 100, Topic: "t", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "snapshot insert failed", map[string]interface{}{"ticker": "AAPL"}, "")
	select {
	case <-pub.sent:
	case <-time.After(time.Second):
		t.Fatalf("interval did not flush")
	}
}

func TestLoggerWithoutCollector(t *testing.T) {
	l := Nop()
	l.Warn("ignored")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
