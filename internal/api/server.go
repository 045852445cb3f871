// Package api exposes a read-only status surface for the analyzer: the
// latest evaluation per symbol over HTTP, a websocket evaluation stream,
// and Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bybit-analyzer-bot/internal/scanner"
)

// Server wraps the gin router and the websocket hub.
type Server struct {
	httpServer *http.Server
	hub        *WSHub
	scanner    *scanner.Scanner
	log        zerolog.Logger
}

func NewServer(sc *scanner.Scanner, host string, port int, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	hub := NewWSHub(logger)

	s := &Server{
		hub:     hub,
		scanner: sc,
		log:     logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", host, port),
			Handler: router,
		},
	}

	router.GET("/api/health", s.handleHealth)
	router.GET("/api/results", s.handleResults)
	router.GET("/ws", func(c *gin.Context) {
		hub.handleConnection(c.Writer, c.Request)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Hub returns the websocket hub so the scanner can broadcast into it.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// Start runs the hub and the HTTP listener in the background.
func (s *Server) Start() {
	go s.hub.Run()
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("status API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("status API server error")
		}
	}()
}

// Shutdown drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"results": s.scanner.Results(),
	})
}
