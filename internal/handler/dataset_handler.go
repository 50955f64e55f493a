package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transitlab/traffic-prep-go/internal/service"
)

// DatasetHandler serves dataset discovery endpoints.
type DatasetHandler struct {
	datasets *service.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasets *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

// List handles GET /api/v1/datasets
func (h *DatasetHandler) List(c *gin.Context) {
	names, err := h.datasets.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": names})
}

// Info handles GET /api/v1/datasets/:name
func (h *DatasetHandler) Info(c *gin.Context) {
	info, err := h.datasets.Info(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}
