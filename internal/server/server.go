// Package server exposes the host's link board over a small admin HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/poslink/internal/link"
	"github.com/danmuck/poslink/internal/observability"
	"github.com/danmuck/poslink/internal/status"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Controller is the slice of the host the admin API may act on. Calls come
// from HTTP goroutines, so implementations must hand work to the reactor.
type Controller interface {
	RetryAsync(id string) error
}

type Admin struct {
	Host    string
	Addr    string
	Started time.Time

	board  *status.Board
	ctl    Controller
	router *gin.Engine
	srv    *http.Server
}

func New(host, addr string, corsOrigins []string, board *status.Board, ctl Controller) *Admin {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(host))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a := &Admin{
		Host:    host,
		Addr:    addr,
		Started: time.Now(),
		board:   board,
		ctl:     ctl,
		router:  r,
		srv:     srv,
	}
	a.registerRoutes()
	return a
}

func (a *Admin) Handler() http.Handler { return a.router }

// Serve blocks until the listener fails or Shutdown is called. Serve after
// Shutdown returns nil at once.
func (a *Admin) Serve() error {
	log.Info().Str("host", a.Host).Str("addr", a.Addr).Msg("admin listening")
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *Admin) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// statusFor maps link errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, link.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, link.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
