package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (a *Admin) registerRoutes() {
	r := a.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(a.Started).String(),
			"host":   a.Host,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ready reports 503 until at least one link is online.
	r.GET("/ready", func(c *gin.Context) {
		online, total := a.board.Online()
		code := http.StatusOK
		if total > 0 && online == 0 {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":  code == http.StatusOK,
			"online": online,
			"total":  total,
			"host":   a.Host,
		})
	})

	r.GET("/links", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"links": a.board.Links()})
	})

	r.GET("/links/:id", func(c *gin.Context) {
		snap, ok := a.board.Link(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	r.GET("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"events": a.board.Events()})
	})

	r.POST("/links/:id/retry", func(c *gin.Context) {
		id := c.Param("id")
		if a.ctl == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "retry unavailable"})
			return
		}
		if err := a.ctl.RetryAsync(id); err != nil {
			log.Warn().Str("host", a.Host).Str("link", id).Err(err).Msg("retry rejected")
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "link": id})
	})
}
