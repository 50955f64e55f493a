package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/models"
	"github.com/transitlab/traffic-prep-go/internal/service"
)

// LoaderHandler serves loader construction and inspection endpoints.
type LoaderHandler struct {
	loaders *service.LoaderService
}

// NewLoaderHandler creates a new loader handler
func NewLoaderHandler(loaders *service.LoaderService) *LoaderHandler {
	return &LoaderHandler{loaders: loaders}
}

// Build handles POST /api/v1/loaders
func (h *LoaderHandler) Build(c *gin.Context) {
	var req models.BuildLoaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.loaders.Build(&req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// Summary handles GET /api/v1/loaders/:id/summary
func (h *LoaderHandler) Summary(c *gin.Context) {
	summary, err := h.loaders.Summary(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Graphs handles GET /api/v1/loaders/:id/graphs
func (h *LoaderHandler) Graphs(c *gin.Context) {
	graphs, err := h.loaders.Graphs(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"graphs": graphs})
}

// statusFor maps pipeline error types onto HTTP statuses: bad
// configuration is the client's fault, missing data sources are not.
func statusFor(err error) int {
	var cfgErr *errs.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusBadRequest
	}
	var dataErr *errs.DataError
	if errors.As(err, &dataErr) {
		return http.StatusUnprocessableEntity
	}
	var shapeErr *errs.ShapeError
	if errors.As(err, &shapeErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
