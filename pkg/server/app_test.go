package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/config"
	xhttp "ValueCheck/pkg/http"
	applogger "ValueCheck/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ n atomic.Int32 }

func (r *countingRefresher) Refresh(context.Context) (*models.TrendingPayload, error) {
	r.n.Add(1)
	return &models.TrendingPayload{Tickers: []string{"AAPL"}}, nil
}

type orderedCloser struct {
	name  string
	order *[]string
	mu    *sync.Mutex
	err   error
}

func (c orderedCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestAppRunAndShutdown(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Server.ShutdownTimeout = 2 * time.Second

	srv := xhttp.NewServer(nil, applogger.Nop(), xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetricsPath(""))
	refresher := &countingRefresher{}

	var (
		mu    sync.Mutex
		order []string
	)
	app := New(cfg, applogger.Nop(), srv, refresher,
		WithCloser("publisher", orderedCloser{name: "publisher", order: &order, mu: &mu}),
		WithCloser("store", orderedCloser{name: "store", order: &order, mu: &mu, err: errors.New("boom")}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Echo().ListenerAddr() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, refresher.n.Load(), "trending warmed on start")

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "close store: boom")
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"store", "publisher"}, order)
}

func TestAppRejectsBadCron(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Trending.RefreshCron = "not a cron"

	app := New(cfg, applogger.Nop(), xhttp.NewServer(nil, applogger.Nop()), &countingRefresher{})
	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register trending job")
}

func TestSchedulerRunNowAndStop(t *testing.T) {
	s := NewScheduler(time.UTC, applogger.Nop())

	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return ctx.Err()
	}
	require.NoError(t, s.Add("tick", "@every 1h", job))
	s.RunNow("tick", job)
	s.RunNow("failing", func(context.Context) error { return errors.New("nope") })
	assert.EqualValues(t, 1, calls.Load())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	// jobs observe cancellation after stop
	s.RunNow("tick", job)
	assert.EqualValues(t, 2, calls.Load())
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 3, "odd"})
	require.Len(t, fields, 1)
	k, v := fields[0].GetKeyValue()
	assert.Equal(t, "entry", k)
	assert.Equal(t, 3, v)
}
