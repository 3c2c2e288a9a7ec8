package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/game/battle"
	"github.com/kasuganosora/monbattle/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

func newServer(t *testing.T, origins ...string) (*httptest.Server, *arena.Manager) {
	t.Helper()
	m, _ := testutil.SetupArena(t)
	h := NewHandler(m, origins, zap.NewNop())
	h.keepAlive = 50 * time.Millisecond
	r := gin.New()
	r.GET("/api/battles/:id/events", h.ServeEvents)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, m
}

func createSingles(t *testing.T, m *arena.Manager) string {
	t.Helper()
	snap, err := m.Create(context.Background(), arena.CreateRequest{
		Player:   arena.TeamSpec{Species: []string{"emberfox"}},
		Opponent: arena.TeamSpec{Species: []string{"tidepup"}},
		Seed:     3,
	})
	require.NoError(t, err)
	return snap.ID
}

// readEvents collects event names until stop is seen or the stream ends.
func readEvents(t *testing.T, sc *bufio.Scanner, stop string) []string {
	t.Helper()
	var names []string
	for sc.Scan() {
		line := sc.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
			if name == stop {
				break
			}
		}
	}
	return names
}

func TestServeEvents_StreamsTurn(t *testing.T) {
	srv, m := newServer(t)
	id := createSingles(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/battles/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	require.Equal(t, []string{"connected"}, readEvents(t, sc, "connected"))

	_, err = m.Submit(ctx, id, arena.ActionRequest{Side: "player", Kind: "skill"})
	require.NoError(t, err)

	names := readEvents(t, sc, "turn_end")
	require.NotEmpty(t, names)
	assert.Equal(t, "turn_end", names[len(names)-1])
	assert.Contains(t, names, "skill_used")
}

func TestServeEvents_KeepAlive(t *testing.T) {
	srv, m := newServer(t)
	id := createSingles(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/battles/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if sc.Text() == ": keepalive" {
			return
		}
	}
	t.Fatal("no keepalive received")
}

func TestServeEvents_UnknownBattle(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/api/battles/nope/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeEvents_Origin(t *testing.T) {
	srv, m := newServer(t, "https://arena.example")
	id := createSingles(t, m)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/battles/"+id+"/events", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// busyArena plays a turn between the subscription and the snapshot read.
type busyArena struct {
	*arena.Manager
	t    *testing.T
	once bool
}

func (a *busyArena) Snapshot(id string) (battle.Snapshot, error) {
	if !a.once {
		a.once = true
		_, err := a.Manager.Submit(context.Background(), id, arena.ActionRequest{Side: "player", Kind: "skill"})
		assert.NoError(a.t, err)
	}
	return a.Manager.Snapshot(id)
}

func TestServeEvents_KeepsEventsDuringConnect(t *testing.T) {
	m, _ := testutil.SetupArena(t)
	id := createSingles(t, m)
	h := NewHandler(&busyArena{Manager: m, t: t}, nil, zap.NewNop())
	r := gin.New()
	r.GET("/api/battles/:id/events", h.ServeEvents)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/battles/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	names := readEvents(t, bufio.NewScanner(resp.Body), "turn_end")
	require.NotEmpty(t, names)
	assert.Equal(t, "connected", names[0])
	assert.Equal(t, "turn_end", names[len(names)-1])
	assert.Contains(t, names, "skill_used")
}
