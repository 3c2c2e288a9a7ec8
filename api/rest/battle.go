package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/game/arena"
	mw "github.com/kasuganosora/monbattle/middleware"
	"github.com/kasuganosora/monbattle/resource"
)

const (
	defaultAutoplayTurns = 100
	maxAutoplayTurns     = 1000
)

// BattleHandler exposes the arena over HTTP.
type BattleHandler struct {
	arena   *arena.Manager
	catalog *resource.ResourceLoader
	logger  *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(a *arena.Manager, catalog *resource.ResourceLoader, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{arena: a, catalog: catalog, logger: logger}
}

// Register mounts the battle routes under r.
func (h *BattleHandler) Register(r gin.IRouter) {
	r.GET("/species", h.ListSpecies)

	b := r.Group("/battles")
	b.POST("", h.Create)
	b.GET("/recent", h.Recent)
	b.GET("/:id", h.Get)
	b.POST("/:id/actions", h.Submit)
	b.POST("/:id/autoplay", h.Autoplay)
	b.GET("/:id/log", h.Log)
	b.GET("/:id/summary", h.Summary)
}

// Create starts a battle.
// POST /api/battles
func (h *BattleHandler) Create(c *gin.Context) {
	var req arena.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.arena.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	mw.Log(c).Info("battle started", zap.String("battle_id", snap.ID))
	c.JSON(http.StatusCreated, snap)
}

// Get returns the battle snapshot.
// GET /api/battles/:id
func (h *BattleHandler) Get(c *gin.Context) {
	snap, err := h.arena.Snapshot(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Submit records one side's action for the current turn.
// POST /api/battles/:id/actions
func (h *BattleHandler) Submit(c *gin.Context) {
	var req arena.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Side == "" {
		req.Side = "player"
	}
	res, err := h.arena.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Autoplay lets the AI drive both sides.
// POST /api/battles/:id/autoplay?turns=N
func (h *BattleHandler) Autoplay(c *gin.Context) {
	turns := defaultAutoplayTurns
	if n, err := strconv.Atoi(c.Query("turns")); err == nil && n > 0 && n <= maxAutoplayTurns {
		turns = n
	}
	snap, err := h.arena.Autoplay(c.Request.Context(), c.Param("id"), turns)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Log returns the battle log.
// GET /api/battles/:id/log?since=N
func (h *BattleHandler) Log(c *gin.Context) {
	since := 0
	if s := c.Query("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
			return
		}
		since = n
	}
	lines, err := h.arena.Log(c.Param("id"), since)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"since": since, "log": lines})
}

// Summary returns the stored record of an ended battle.
// GET /api/battles/:id/summary
func (h *BattleHandler) Summary(c *gin.Context) {
	sum, err := h.arena.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Recent lists the ids of recently ended battles, newest first.
// GET /api/battles/recent?limit=20
func (h *BattleHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ids, err := h.arena.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battles": ids})
}

// ListSpecies returns the catalog's species.
// GET /api/species
func (h *BattleHandler) ListSpecies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"species": h.catalog.Species})
}

// Health reports liveness and the number of battles in memory.
// GET /health
func (h *BattleHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "battles": len(h.arena.Active())})
}

func (h *BattleHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		mw.Log(c).Error("battle request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "trace_id": mw.GetTraceID(c)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, arena.ErrBattleNotFound):
		return http.StatusNotFound
	case errors.Is(err, arena.ErrRejected):
		return http.StatusConflict
	case errors.Is(err, arena.ErrInvalidRequest),
		errors.Is(err, resource.ErrUnknownSpecies),
		errors.Is(err, resource.ErrUnknownSkill),
		errors.Is(err, resource.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
