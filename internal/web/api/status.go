package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"homeauto/internal/cache"
	"homeauto/internal/db"
)

// RegisterStatusRoutes wires the read-only introspection endpoints.
func RegisterStatusRoutes(r *gin.Engine, c *cache.Cache, dbConn *db.DB) {
	grp := r.Group("/api")
	{
		grp.GET("/status", func(ctx *gin.Context) {
			resp := gin.H{
				"devices":    c.States(),
				"lastAction": c.LastAction(),
			}
			if reading, ok := c.Latest(); ok {
				resp["latest"] = reading
			}
			ctx.JSON(200, resp)
		})

		grp.GET("/audit/recent", func(ctx *gin.Context) {
			limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
			entries, err := dbConn.RecentAuditEntries(ctx, limit)
			if err != nil {
				ctx.JSON(500, gin.H{"error": "failed to fetch audit entries"})
				return
			}
			ctx.JSON(200, entries)
		})

		grp.GET("/stats/daily", func(ctx *gin.Context) {
			date := ctx.DefaultQuery("date", time.Now().Format("2006-01-02"))
			stats, err := dbConn.DailyStats(ctx, date)
			if err != nil {
				ctx.JSON(500, gin.H{"error": "failed to aggregate stats"})
				return
			}
			ctx.JSON(200, stats)
		})
	}
}
