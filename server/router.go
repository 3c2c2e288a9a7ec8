// Package server assembles the HTTP surface of the battle service.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apirest "github.com/kasuganosora/monbattle/api/rest"
	"github.com/kasuganosora/monbattle/api/sse"
	"github.com/kasuganosora/monbattle/game/arena"
	mw "github.com/kasuganosora/monbattle/middleware"
	"github.com/kasuganosora/monbattle/resource"
)

// Deps are the services the router exposes.
type Deps struct {
	Arena          *arena.Manager
	Catalog        *resource.ResourceLoader
	Limiter        *mw.Limiter // nil = no rate limiting
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route mounted.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(d.Logger, "/health"), mw.Recovery(d.Logger))

	battleH := apirest.NewBattleHandler(d.Arena, d.Catalog, d.Logger)
	r.GET("/health", battleH.Health)

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Handler())
	}
	battleH.Register(api)

	sseH := sse.NewHandler(d.Arena, d.AllowedOrigins, d.Logger)
	api.GET("/battles/:id/events", sseH.ServeEvents)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found", "trace_id": mw.GetTraceID(c)})
	})
	return r
}
