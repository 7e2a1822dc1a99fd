// Package api exposes the store's operation surface over HTTP for the web
// presentation layer. It owns no state of its own: every request dispatches a
// store operation and renders the outcome.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"stratlab/store"
)

// Server wires the strategy store into a gin router.
type Server struct {
	store *store.Store
	log   *slog.Logger

	corsOrigins []string
}

// NewServer creates a Server for the given store. corsOrigins lists the
// browser origins allowed to call the API.
func NewServer(st *store.Store, corsOrigins []string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: st, log: log, corsOrigins: corsOrigins}
}

// Handler builds the HTTP handler: gin routes wrapped in CORS.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/state", s.getState)
		v1.GET("/strategies", s.listStrategies)
		v1.POST("/strategies", s.createStrategy)
		v1.POST("/strategies/:id/validate", s.validateStrategy)
		v1.PUT("/strategies/current", s.selectCurrentStrategy)
		v1.POST("/backtests", s.runBacktest)
		v1.GET("/backtests/result", s.getBacktestResult)
		v1.DELETE("/backtests/result", s.clearBacktestResult)
	}

	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("api listening", "addr", addr)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return srv.ListenAndServe()
}
