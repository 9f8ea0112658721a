package web

import (
	"github.com/gin-gonic/gin"

	"homeauto/internal/cache"
	"homeauto/internal/db"
	"homeauto/internal/metrics"
	"homeauto/internal/web/api"
)

// WebServer exposes the read-only ops surface: engine status, recent audit
// entries, telemetry stats and prometheus metrics.
type WebServer struct {
	router *gin.Engine
}

func NewWebServer(c *cache.Cache, dbConn *db.DB) *WebServer {
	router := gin.Default()

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.RegisterStatusRoutes(router, c, dbConn)

	return &WebServer{router: router}
}

func (ws *WebServer) Start(addr string) error {
	return ws.router.Run(addr)
}
