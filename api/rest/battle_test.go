package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/api/rest"
	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/game/battle"
	mw "github.com/kasuganosora/monbattle/middleware"
	"github.com/kasuganosora/monbattle/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

func newBattleRouter(t *testing.T) *gin.Engine {
	m, cat := testutil.SetupArena(t)
	h := rest.NewBattleHandler(m, cat, zap.NewNop())
	r := gin.New()
	r.Use(mw.TraceID())
	r.GET("/health", h.Health)
	h.Register(r.Group("/api"))
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBattle(t *testing.T, r http.Handler, req arena.CreateRequest) battle.Snapshot {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/battles", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var snap battle.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func singles(player, opponent string) arena.CreateRequest {
	return arena.CreateRequest{
		Player:   arena.TeamSpec{Species: []string{player}, Level: 20},
		Opponent: arena.TeamSpec{Species: []string{opponent}, Level: 20},
		Seed:     7,
	}
}

func TestHealth(t *testing.T) {
	r := newBattleRouter(t)
	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListSpecies(t *testing.T) {
	r := newBattleRouter(t)
	w := doJSON(r, http.MethodGet, "/api/species", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Species []struct {
			Key string `json:"key"`
		} `json:"species"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Species)
	assert.Equal(t, "emberfox", resp.Species[0].Key)
}

func TestCreateAndGet(t *testing.T) {
	r := newBattleRouter(t)
	snap := createBattle(t, r, singles("emberfox", "sproutle"))
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "awaiting_actions", snap.State)
	assert.Equal(t, []string{"player"}, snap.Awaiting)

	w := doJSON(r, http.MethodGet, "/api/battles/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got battle.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, snap.ID, got.ID)
}

func TestCreate_BadRequests(t *testing.T) {
	r := newBattleRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/battles", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/battles", singles("missingno", "tidepup"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "trace_id")

	w = doJSON(r, http.MethodPost, "/api/battles", arena.CreateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet_NotFound(t *testing.T) {
	r := newBattleRouter(t)
	for _, p := range []string{"/api/battles/nope", "/api/battles/nope/log", "/api/battles/nope/summary"} {
		w := doJSON(r, http.MethodGet, p, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, p)
	}
}

func TestSubmit(t *testing.T) {
	r := newBattleRouter(t)
	snap := createBattle(t, r, singles("emberfox", "tidepup"))

	w := doJSON(r, http.MethodPost, "/api/battles/"+snap.ID+"/actions",
		arena.ActionRequest{Kind: "skill", Param1: 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res arena.SubmitResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Resolved)
	assert.NotEmpty(t, res.Log)

	w = doJSON(r, http.MethodGet, "/api/battles/"+snap.ID+"/log?since=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lr struct {
		Since int               `json:"since"`
		Log   []battle.LogEntry `json:"log"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lr))
	assert.Equal(t, 1, lr.Since)

	w = doJSON(r, http.MethodGet, "/api/battles/"+snap.ID+"/log?since=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit_Errors(t *testing.T) {
	r := newBattleRouter(t)
	snap := createBattle(t, r, singles("emberfox", "tidepup"))
	path := "/api/battles/" + snap.ID + "/actions"

	w := doJSON(r, http.MethodPost, path, arena.ActionRequest{Kind: "dance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, path, arena.ActionRequest{Side: "opponent", Kind: "skill"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// structured battles cannot be fled
	w = doJSON(r, http.MethodPost, path, arena.ActionRequest{Kind: "escape"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/api/battles/nope/actions", arena.ActionRequest{Kind: "skill"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAutoplaySummaryRecent(t *testing.T) {
	r := newBattleRouter(t)
	req := singles("emberfox", "voltmouse")
	req.Duel = true
	snap := createBattle(t, r, req)

	w := doJSON(r, http.MethodGet, "/api/battles/"+snap.ID+"/summary", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "running battles have no summary")

	w = doJSON(r, http.MethodPost, "/api/battles/"+snap.ID+"/autoplay?turns=1000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var end battle.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &end))
	assert.Equal(t, "ended", end.State)

	w = doJSON(r, http.MethodGet, "/api/battles/"+snap.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum arena.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, end.Result, sum.Result)

	w = doJSON(r, http.MethodGet, "/api/battles/recent?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), snap.ID)
}
