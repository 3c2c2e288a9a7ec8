package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/game/battle"
	mw "github.com/kasuganosora/monbattle/middleware"
)

const defaultKeepAlive = 30 * time.Second

// Source is the part of the arena the stream reads from.
type Source interface {
	Subscribe(ctx context.Context, id string) (<-chan *cache.Message, func(), error)
	Snapshot(id string) (battle.Snapshot, error)
}

// Handler streams a battle's events as server-sent events.
type Handler struct {
	arena     Source
	origins   map[string]struct{}
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler creates a Handler. An empty origins list allows every origin.
func NewHandler(a Source, origins []string, logger *zap.Logger) *Handler {
	h := &Handler{arena: a, logger: logger, keepAlive: defaultKeepAlive}
	if len(origins) > 0 {
		h.origins = make(map[string]struct{}, len(origins))
		for _, o := range origins {
			h.origins[o] = struct{}{}
		}
	}
	return h
}

// ServeEvents handles GET /api/battles/:id/events.
// Each published envelope becomes one event named after its type with the
// envelope's seq as the event id. The stream ends after battle_end.
func (h *Handler) ServeEvents(c *gin.Context) {
	if !h.originAllowed(c.GetHeader("Origin")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	id := c.Param("id")
	// Subscribe before reading the snapshot so no event falls between them.
	msgCh, unsub, err := h.arena.Subscribe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, arena.ErrBattleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("sse subscribe failed", zap.String("battle_id", id), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	snap, err := h.arena.Snapshot(id)
	if err != nil {
		if errors.Is(err, arena.ErrBattleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// The current state lets a late subscriber render before the next event.
	initial, _ := json.Marshal(snap)
	fmt.Fprintf(c.Writer, "event: connected\ndata: %s\n\n", initial)
	c.Writer.Flush()

	log := mw.Log(c)
	sent := 0
	defer func() { log.Debug("sse stream closed", zap.Int("events", sent)) }()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var head struct {
				Seq  int    `json:"seq"`
				Type string `json:"type"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil {
				log.Warn("sse skip malformed event", zap.Error(err))
				continue
			}
			fmt.Fprintf(c.Writer, "id: %d\nevent: %s\ndata: %s\n\n", head.Seq, head.Type, msg.Payload)
			c.Writer.Flush()
			sent++
			if head.Type == "battle_end" {
				return
			}

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) originAllowed(origin string) bool {
	if h.origins == nil || origin == "" {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}
