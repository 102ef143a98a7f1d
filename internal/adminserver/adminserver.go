// Package adminserver is the thin gin-based health/status/pprof surface.
// It carries no market or event read endpoints — that query API is an
// out-of-scope external collaborator (SPEC_FULL §1).
package adminserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/orchestrator"
)

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *logrus.Logger
}

// New builds the admin gin engine. port == 0 disables the surface
// entirely (Start becomes a no-op).
func New(port int, mode string, orch *orchestrator.Orchestrator, logger *logrus.Logger) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.Default()
	pprof.Register(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/status", func(c *gin.Context) {
		status, err := orch.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sync_state": status})
	})

	var httpServer *http.Server
	if port != 0 {
		httpServer = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}
	}

	return &Server{engine: r, http: httpServer, logger: logger}
}

// Start runs the admin server in the background. A nil *http.Server
// (port 0) makes this a no-op.
func (s *Server) Start() {
	if s.http == nil {
		return
	}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("admin server stopped unexpectedly")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
