// Package integration runs the full HTTP stack against a Redis-backed cache.
package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/game/arena"
	mw "github.com/kasuganosora/monbattle/middleware"
	"github.com/kasuganosora/monbattle/scheduler"
	"github.com/kasuganosora/monbattle/server"
	"github.com/kasuganosora/monbattle/testutil"
)

// TestServer wraps a real HTTP server wired the way `serve` wires it, with
// miniredis standing in for Redis.
type TestServer struct {
	Redis  *miniredis.Miniredis
	Arena  *arena.Manager
	Sched  *scheduler.Scheduler
	Server *httptest.Server
	URL    string
}

// Options tweak the harness.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewTestServer starts a fully wired server for one test.
func NewTestServer(t *testing.T, opts Options) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	cfg := cache.Config{RedisAddr: mr.Addr()}
	store, err := cache.NewStore(cfg)
	require.NoError(t, err)
	pubsub, err := cache.NewPubSub(cfg)
	require.NoError(t, err)

	cat := testutil.SetupCatalog(t)
	sched := scheduler.New(logger)
	manager := arena.NewManager(arena.Options{
		Catalog:   cat,
		Store:     store,
		PubSub:    pubsub,
		Scheduler: sched,
		Logger:    logger,
	})
	manager.Start()

	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS, opts.RateLimitBurst = 1000, 2000
	}
	r := server.NewRouter(server.Deps{
		Arena:   manager,
		Catalog: cat,
		Limiter: mw.NewLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		Logger:  logger,
	})
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		sched.Stop()
		_ = pubsub.Close()
		_ = store.Close()
	})
	return &TestServer{Redis: mr, Arena: manager, Sched: sched, Server: srv, URL: srv.URL}
}

// Do sends a JSON request and decodes a JSON response into out when non-nil.
func (s *TestServer) Do(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// EventStream is an open SSE connection.
type EventStream struct {
	sc     *bufio.Scanner
	cancel context.CancelFunc
	body   io.Closer
}

// OpenEvents connects to a battle's event stream and waits for "connected".
func (s *TestServer) OpenEvents(t *testing.T, id string) *EventStream {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/api/battles/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	es := &EventStream{sc: bufio.NewScanner(resp.Body), cancel: cancel, body: resp.Body}
	t.Cleanup(es.Close)
	require.Equal(t, "connected", es.Next(t).Name)
	return es
}

// Event is one parsed server-sent event.
type Event struct {
	ID   string
	Name string
	Data string
}

// Next blocks for the next event.
func (es *EventStream) Next(t *testing.T) Event {
	t.Helper()
	var ev Event
	for es.sc.Scan() {
		line := es.sc.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				return ev
			}
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("event stream ended: %v", es.sc.Err())
	return ev
}

// Close drops the connection.
func (es *EventStream) Close() {
	es.cancel()
	_ = es.body.Close()
}
