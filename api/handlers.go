package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stratlab/store"
	"stratlab/strategy"
)

// errorJSON renders the error envelope the web client expects.
func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// rejected maps a store rejection to an HTTP response.
func rejected(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	errorJSON(c, http.StatusInternalServerError, "OPERATION_REJECTED", err.Error())
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) listStrategies(c *gin.Context) {
	if err := s.store.ListStrategies(c.Request.Context()); err != nil {
		rejected(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": s.store.Snapshot().Strategies})
}

func (s *Server) createStrategy(c *gin.Context) {
	var draft strategy.Strategy
	if err := c.ShouldBindJSON(&draft); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := strategy.CheckDraft(draft); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	created, err := s.store.CreateStrategy(c.Request.Context(), draft)
	if err != nil {
		rejected(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) validateStrategy(c *gin.Context) {
	validated, err := s.store.ValidateStrategy(c.Request.Context(), c.Param("id"))
	if err != nil {
		rejected(c, err)
		return
	}
	c.JSON(http.StatusOK, validated)
}

func (s *Server) selectCurrentStrategy(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Body is either a strategy object or JSON null (deselect).
	var sel *strategy.Strategy
	if err := json.Unmarshal(raw, &sel); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	s.store.SelectCurrentStrategy(sel)
	c.JSON(http.StatusOK, gin.H{"currentStrategy": s.store.Snapshot().CurrentStrategy})
}

func (s *Server) runBacktest(c *gin.Context) {
	var cfg strategy.BacktestConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := cfg.Validate(); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.store.RunBacktest(c.Request.Context(), cfg)
	if err != nil {
		rejected(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getBacktestResult(c *gin.Context) {
	result := s.store.Snapshot().BacktestResult
	if result == nil {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "no backtest result")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) clearBacktestResult(c *gin.Context) {
	s.store.ClearBacktestResult()
	c.Status(http.StatusNoContent)
}
