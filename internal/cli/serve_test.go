package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/feeds"
)

func TestServe_Addr(t *testing.T) {
	rt := newTestRuntime(t)

	assert.Equal(t, "127.0.0.1:5000", (&ServeCommand{}).addr(rt))
	assert.Equal(t, "0.0.0.0:8080", (&ServeCommand{Host: "0.0.0.0", Port: 8080}).addr(rt))
}

func TestServe_HandlerAnswersQueries(t *testing.T) {
	rt := newTestRuntime(t)
	seedStatusAt(t, rt, "s1", "nytimes", "Jones wins", day0)

	srv := httptest.NewServer((&ServeCommand{}).handler(rt))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/json/count")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, rt.cfg.Server.Name, resp.Header.Get("Server"))

	var out map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(1), out["count"])

	body := `{"words":["Jones"],"start":"2022-02-14","end":"2022-02-15"}`
	resp2, err := http.Post(srv.URL+"/json/xcount", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&out))
	assert.Equal(t, int64(1), out["count"])
}

func TestServe_StopsOnCancel(t *testing.T) {
	rt := newTestRuntime(t)
	rt.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&ServeCommand{}).serve(ctx, rt, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// slowFetcher blocks until its context is cancelled, then takes a moment
// longer to return.
type slowFetcher struct {
	entered  chan struct{}
	finished atomic.Bool
}

func (f *slowFetcher) Fetch(ctx context.Context, _ config.FeedSource) ([]feeds.Item, error) {
	close(f.entered)
	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	f.finished.Store(true)
	return nil, ctx.Err()
}

func TestServe_WaitsForIngestDaemon(t *testing.T) {
	rt := newTestRuntime(t)
	rt.cfg.Server.Port = 0
	rt.cfg.Feeds.RatePerMinute = 0
	rt.cfg.Feeds.Sources = []config.FeedSource{{Name: "nytimes", URL: "https://example.com/nyt.xml"}}

	f := &slowFetcher{entered: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&ServeCommand{}).serve(ctx, rt, f)
	}()

	select {
	case <-f.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("ingest daemon never fetched")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, f.finished.Load(), "serve returned while the daemon was still fetching")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err := rt.store.CountAll(context.Background())
	assert.NoError(t, err)
}
