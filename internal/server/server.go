// Package server exposes the tool registry and health endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/tools"
)

// Config holds HTTP server settings.
type Config struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Server provides the tool and health endpoints.
type Server struct {
	registry *tools.Registry
	monitor  *Monitor
	engine   *gin.Engine
	server   *http.Server
	log      *slog.Logger
}

// ErrorBody is the structured failure returned by every endpoint.
type ErrorBody struct {
	Kind       fault.Kind `json:"kind"`
	Message    string     `json:"message"`
	Retryable  bool       `json:"retryable"`
	StatusCode int        `json:"status_code,omitempty"`
}

// NewServer creates a new server.
func NewServer(cfg Config, registry *tools.Registry, monitor *Monitor) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		registry: registry,
		monitor:  monitor,
		engine:   engine,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: slog.Default().With("component", "server"),
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/health/detailed", s.handleDetailed)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/tools", s.handleListTools)
	engine.POST("/tools/:name", s.handleCallTool)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.monitor.CheckHealth()
	status := http.StatusOK
	if report.Status == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) handleDetailed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"services":     s.monitor.Detailed(),
		"dependencies": s.monitor.DependencyHealth(),
	})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.registry.List()})
}

func (s *Server) handleCallTool(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, fault.Wrap(fault.KindValidation, "read request body", err))
		return
	}

	result, err := s.registry.Call(c.Request.Context(), c.Param("name"), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func writeError(c *gin.Context, err error) {
	fe := fault.Classify(0, nil, err)
	c.JSON(HTTPStatus(fe.Kind), gin.H{"error": ErrorBody{
		Kind:       fe.Kind,
		Message:    fe.Message,
		Retryable:  fe.Retryable,
		StatusCode: fe.StatusCode,
	}})
}

// HTTPStatus maps a failure kind to the status returned to tool callers.
func HTTPStatus(kind fault.Kind) int {
	switch kind.Family() {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindRateLimited:
		return http.StatusTooManyRequests
	case fault.KindTimeout:
		return http.StatusGatewayTimeout
	case fault.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case fault.KindUpstream, fault.KindAuth:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
