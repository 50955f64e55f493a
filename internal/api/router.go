package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/transitlab/traffic-prep-go/internal/config"
	"github.com/transitlab/traffic-prep-go/internal/handler"
	"github.com/transitlab/traffic-prep-go/internal/middleware"
	"github.com/transitlab/traffic-prep-go/internal/service"
)

// SetupRouter wires the HTTP surface.
func SetupRouter(cfg *config.Config, datasets *service.DatasetService, loaders *service.LoaderService) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(middleware.Logger())

	limiter := middleware.NewRateLimiter(30, time.Minute)

	// health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Traffic Prep API is running",
		})
	})

	datasetHandler := handler.NewDatasetHandler(datasets)
	loaderHandler := handler.NewLoaderHandler(loaders)

	api := r.Group("/api/v1")
	{
		ds := api.Group("/datasets")
		{
			ds.GET("", datasetHandler.List)
			ds.GET("/:name", datasetHandler.Info)
		}

		ld := api.Group("/loaders")
		ld.Use(limiter.Middleware())
		{
			ld.POST("", middleware.Auth(cfg.JWTSecret), loaderHandler.Build)
			ld.GET("/:id/summary", loaderHandler.Summary)
			ld.GET("/:id/graphs", loaderHandler.Graphs)
		}
	}

	return r
}
