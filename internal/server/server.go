// Package server exposes both pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/kbguard/internal/core/abrogation"
	"github.com/agenthands/kbguard/internal/core/dedupe"
	"github.com/agenthands/kbguard/internal/core/legalref"
	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/store"
)

type DuplicateService interface {
	DetectDuplicatesAndContradictions(ctx context.Context, documentID string) (*dedupe.Report, error)
	QuickDuplicates(ctx context.Context, documentID string) ([]model.SimilarityCandidate, error)
	Relations(ctx context.Context, documentID string) ([]model.DuplicateRelation, error)
	DuplicateCluster(ctx context.Context, documentID string, maxSize int) (*dedupe.Cluster, error)
}

type AbrogationService interface {
	DetectAbrogations(ctx context.Context, message string, opts abrogation.Options) ([]model.AbrogationAlert, error)
}

type Server struct {
	Duplicates  DuplicateService
	Abrogations AbrogationService
	// Ready reports backend health for /healthz. Nil means always ready.
	Ready   func(ctx context.Context) error
	Metrics http.Handler
	Logger  *slog.Logger
}

func NewServer(dups DuplicateService, abr AbrogationService) *Server {
	return &Server{Duplicates: dups, Abrogations: abr, Logger: slog.Default()}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics))
	}

	v1 := r.Group("/v1")
	v1.POST("/documents/:id/analyze", s.Analyze)
	v1.GET("/documents/:id/duplicates", s.QuickDuplicates)
	v1.GET("/documents/:id/relations", s.Relations)
	v1.GET("/documents/:id/cluster", s.Cluster)
	v1.POST("/references/extract", s.ExtractReferences)
	v1.POST("/abrogations/detect", s.DetectAbrogations)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.Logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status())
	}
}

func (s *Server) Health(c *gin.Context) {
	if s.Ready != nil {
		if err := s.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Analyze(c *gin.Context) {
	report, err := s.Duplicates.DetectDuplicatesAndContradictions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Failed to analyze document", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) QuickDuplicates(c *gin.Context) {
	dups, err := s.Duplicates.QuickDuplicates(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Failed to search duplicates", err)
		return
	}
	if dups == nil {
		dups = []model.SimilarityCandidate{}
	}
	c.JSON(http.StatusOK, gin.H{"document_id": c.Param("id"), "duplicates": dups})
}

func (s *Server) Relations(c *gin.Context) {
	rels, err := s.Duplicates.Relations(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Failed to list relations", err)
		return
	}
	if rels == nil {
		rels = []model.DuplicateRelation{}
	}
	c.JSON(http.StatusOK, gin.H{"document_id": c.Param("id"), "relations": rels})
}

func (s *Server) Cluster(c *gin.Context) {
	maxSize := 0
	if v := c.Query("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a positive integer"})
			return
		}
		maxSize = n
	}
	cluster, err := s.Duplicates.DuplicateCluster(c.Request.Context(), c.Param("id"), maxSize)
	if err != nil {
		s.fail(c, "Failed to expand duplicate cluster", err)
		return
	}
	c.JSON(http.StatusOK, cluster)
}

type ExtractRequest struct {
	Text          string  `json:"text" binding:"required"`
	MinConfidence float64 `json:"min_confidence"`
}

type ExtractResponse struct {
	References []model.LegalReference `json:"references"`
	Disclosed  []model.SelfDisclosure `json:"self_disclosed"`
}

func (s *Server) ExtractReferences(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	refs := legalref.Extract(req.Text)
	if req.MinConfidence > 0 {
		refs = legalref.FilterByConfidence(refs, req.MinConfidence)
	}
	resp := ExtractResponse{
		References: refs,
		Disclosed:  legalref.DetectSelfDisclosed(req.Text),
	}
	if resp.References == nil {
		resp.References = []model.LegalReference{}
	}
	if resp.Disclosed == nil {
		resp.Disclosed = []model.SelfDisclosure{}
	}
	c.JSON(http.StatusOK, resp)
}

type DetectRequest struct {
	Message       string  `json:"message" binding:"required"`
	Threshold     float64 `json:"threshold"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) DetectAbrogations(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 || req.MinConfidence < 0 || req.MinConfidence > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold and min_confidence must be within [0, 1]"})
		return
	}

	alerts, err := s.Abrogations.DetectAbrogations(c.Request.Context(), req.Message, abrogation.Options{
		Threshold:     req.Threshold,
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		s.fail(c, "Failed to detect abrogations", err)
		return
	}
	if alerts == nil {
		alerts = []model.AbrogationAlert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts":         alerts,
		"self_disclosed": legalref.DetectSelfDisclosed(req.Message),
		"text":           abrogation.FormatAlerts(alerts),
	})
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		status = 499
	}
	s.Logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(status, gin.H{"error": msg})
}
