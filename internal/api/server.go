// Package api serves the session-tracking HTTP API polled by the dashboard.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB           *gorm.DB
	Host         string
	Port         int
	HistoryLimit int
	AccessLog    bool
	Out          io.Writer
}

// app is the per-process context shared by every handler. The store is the
// only shared state.
type app struct {
	db           *gorm.DB
	historyLimit int
	now          func() time.Time
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(opts StartOpts) *gin.Engine {
	return newRouter(opts, time.Now)
}

func newRouter(opts StartOpts, now func() time.Time) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.AccessLog && opts.Out != nil {
		router.Use(gin.LoggerWithWriter(opts.Out))
	}
	router.Use(corsMiddleware())

	registerRoutes(router, &app{
		db:           opts.DB,
		historyLimit: opts.HistoryLimit,
		now:          now,
	})
	return router
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully, letting in-flight requests finish their commits.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 5000
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts)

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://%s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
