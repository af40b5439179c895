package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ocrgateway/internal/logger"
	"ocrgateway/internal/server/middleware"
)

// OCRHandler defines the interface for the OCR handler.
type OCRHandler interface {
	HandleImage(c *gin.Context)
	HandleURL(c *gin.Context)
	HandleProviders(c *gin.Context)
}

// New wires up handlers to the Gin engine.
func New(apiKey string, ocrHandler OCRHandler) *gin.Engine {
	log := logger.Get("http")

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.Recovery(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Unversioned upload endpoint kept for existing clients.
	r.POST("/ocr", middleware.WithAPIKey(apiKey), ocrHandler.HandleImage)

	v1 := r.Group("/api/v1")
	{
		ocr := v1.Group("/ocr")
		ocr.Use(middleware.WithAPIKey(apiKey))

		ocr.POST("/image", ocrHandler.HandleImage)
		ocr.POST("/url", ocrHandler.HandleURL)
		ocr.GET("/providers", ocrHandler.HandleProviders)
	}

	return r
}
