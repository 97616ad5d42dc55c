// Package server exposes the caption pipeline over HTTP. The transport
// mirrors the pipeline's totality guarantee: well-formed requests always get
// a 200 with a caption; only structurally invalid input earns a 4xx.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alttext "github.com/menta2k/alt-text-service"
	"github.com/menta2k/alt-text-service/internal/store"
	"github.com/menta2k/alt-text-service/pkg/fetcher"
	"github.com/menta2k/alt-text-service/pkg/types"
)

// Server wires the caption service, the record store and the metrics
// registry into a Gin engine.
type Server struct {
	hs     *http.Server
	svc    *alttext.Service
	store  *store.Store
	logger *slog.Logger
}

// New creates a Server. store may be nil (no persistence) and gatherer may be
// nil (no /metrics endpoint).
func New(addr string, svc *alttext.Service, st *store.Store, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		svc:    svc,
		store:  st,
		logger: logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/caption", srv.handleCaption())
	engine.GET("/logs", srv.handleLogs())
	engine.GET("/healthz", srv.handleHealth())
	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	srv.hs = &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return srv
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	return s.hs.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hs.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.hs.Handler
}

func (s *Server) handleCaption() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body CaptionRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponseBody{Error: "invalid request body"})
			return
		}
		if strings.TrimSpace(body.ImageURL) == "" {
			c.JSON(http.StatusBadRequest, ErrorResponseBody{Error: "image_url is required"})
			return
		}
		if err := fetcher.ValidateScheme(body.ImageURL); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponseBody{Error: "image_url must be an http or https URL"})
			return
		}

		requestID := uuid.NewString()
		req := types.CaptionRequest{
			ImageURL: body.ImageURL,
			Title:    deref(body.Title),
			Vendor:   deref(body.Vendor),
		}

		result, outcome := s.svc.Synthesize(c.Request.Context(), req)

		s.logger.Info("caption synthesized",
			"request_id", requestID,
			"source", string(outcome.Source),
			"error_kind", outcome.ErrorKind(),
			"alt_len", len(result.AltText))

		if s.store != nil {
			entry := &store.OperationLog{
				ID:         requestID,
				ShopDomain: c.GetHeader("X-Shop-Domain"),
				ImageURL:   body.ImageURL,
				Source:     string(outcome.Source),
				ErrorKind:  outcome.ErrorKind(),
				AltText:    result.AltText,
			}
			if err := s.store.AddLog(entry); err != nil {
				s.logger.Warn("failed to record operation log",
					"request_id", requestID, "error", err)
			}
		}

		c.JSON(http.StatusOK, CaptionResponseBody{AltText: result.AltText})
	}
}

func (s *Server) handleLogs() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.store == nil {
			c.JSON(http.StatusOK, []store.OperationLog{})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		logs, err := s.store.RecentLogs(limit)
		if err != nil {
			s.logger.Warn("failed to list operation logs", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponseBody{Error: "failed to list logs"})
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": alttext.Version})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
