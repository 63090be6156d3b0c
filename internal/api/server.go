package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/internal/service"
	"github.com/drug-response-server/pkg/external"
)

// Server represents the HTTP server exposing the prediction pipeline
type Server struct {
	config    *domain.Config
	router    *gin.Engine
	server    *http.Server
	logger    *logrus.Logger
	predictor *service.PredictionOrchestrator
	validator *service.DrugNameValidator
	drugInfo  external.DrugInfoProvider
}

// NewServer creates a new HTTP server instance
func NewServer(
	config *domain.Config,
	predictor *service.PredictionOrchestrator,
	validator *service.DrugNameValidator,
	drugInfo external.DrugInfoProvider,
	logger *logrus.Logger,
) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	s := &Server{
		config:    config,
		router:    router,
		logger:    logger,
		predictor: predictor,
		validator: validator,
		drugInfo:  drugInfo,
	}

	s.setupRoutes()

	return s
}

// Start starts the HTTP server and blocks until the context is
// cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/predict", s.handlePredict)
		v1.GET("/drugs/validate", s.handleValidateDrugName)
		v1.GET("/drugs/:name/info", s.handleDrugInfo)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// handlePredict handles prediction submissions
func (s *Server) handlePredict(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req domain.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput, "malformed prediction request", err.Error(), requestID))
		return
	}

	result, err := s.predictor.Predict(c.Request.Context(), &req)
	if err != nil {
		var validationErr *domain.ValidationError
		var backendErr *domain.AllBackendsFailedError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, domain.NewAPIError(
				domain.ErrValidation, validationErr.Error(), "", requestID))
		case errors.As(err, &backendErr):
			c.JSON(http.StatusBadGateway, domain.NewAPIError(
				domain.ErrBackendFailure, "all prediction backends failed, please resubmit", backendErr.Error(), requestID))
		default:
			c.JSON(http.StatusInternalServerError, domain.NewAPIError(
				domain.ErrInternalServer, "prediction failed", err.Error(), requestID))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleValidateDrugName handles the pre-submission drug name gate
func (s *Server) handleValidateDrugName(c *gin.Context) {
	name := c.Query("name")
	result := s.validator.Validate(c.Request.Context(), name)
	c.JSON(http.StatusOK, result)
}

// handleDrugInfo handles aggregated drug information lookups
func (s *Server) handleDrugInfo(c *gin.Context) {
	requestID := c.GetString("request_id")
	name := c.Param("name")

	info, err := s.drugInfo.FetchDrugInfo(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrExternalAPI, "drug information lookup failed", err.Error(), requestID))
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrDrugInfoNotFound, fmt.Sprintf("no drug information found for %q", name), "", requestID))
		return
	}

	c.JSON(http.StatusOK, info)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
