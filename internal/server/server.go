// Package server exposes the HTTP trigger and read endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/export"
	"github.com/meramerchant/invoiceflow/internal/mailbox"
	"github.com/meramerchant/invoiceflow/internal/pipeline"
	"github.com/meramerchant/invoiceflow/internal/repository"
)

// Server wires the HTTP surface of the importer.
type Server struct {
	processor *pipeline.Processor
	store     repository.InvoiceStore
	exporter  *export.Service
	fetcher   *mailbox.Fetcher // nil when mailbox retrieval is disabled
	inputDir  string
	logger    *zap.Logger
}

// New creates the HTTP server facade.
func New(
	processor *pipeline.Processor,
	store repository.InvoiceStore,
	exporter *export.Service,
	fetcher *mailbox.Fetcher,
	inputDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		processor: processor,
		store:     store,
		exporter:  exporter,
		fetcher:   fetcher,
		inputDir:  inputDir,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "invoiceflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/process", s.handleProcess)
		api.GET("/invoices", s.handleListInvoices)
		api.GET("/invoices/export", s.handleExport)
	}

	return router
}

// handleProcess triggers one import run. The response reports overall
// success with the processed-document count even when individual
// documents or records failed; only run-level faults return an error.
func (s *Server) handleProcess(c *gin.Context) {
	if s.fetcher != nil {
		if _, err := s.fetcher.FetchAttachments(s.inputDir); err != nil {
			// Keep going: whatever is already on disk can still be
			// imported.
			s.logger.Error("Mailbox retrieval failed", zap.Error(err))
		}
	}

	result, err := s.processor.Run(c.Request.Context(), s.inputDir)
	if err != nil {
		s.logger.Error("Import run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred during processing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "processed invoices successfully",
		"processed": result.Processed,
		"inserted":  result.Inserted,
		"duplicates": result.Duplicates,
		"failed":    result.Failed,
	})
}

func (s *Server) handleListInvoices(c *gin.Context) {
	invoices, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(invoices),
		"invoices": invoices,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	content, err := s.exporter.ExportXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export invoices"})
		return
	}
	filename := "invoices-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		content)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
