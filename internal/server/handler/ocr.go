package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ocrgateway/internal/ocr"
	"ocrgateway/internal/server/service"
)

// FormField is the multipart field carrying the image.
const FormField = "image"

// multipartOverhead leaves room for boundaries and headers above the image limit.
const multipartOverhead = 1 << 20

// OCRService defines the behavior consumed by the handler.
type OCRService interface {
	RecognizeUpload(ctx context.Context, r io.Reader) (ocr.Result, error)
	RecognizeURL(ctx context.Context, rawURL string) (ocr.Result, error)
	Providers(ctx context.Context) []ocr.Availability
}

// OCRHandler manages OCR HTTP interactions.
type OCRHandler struct {
	service   OCRService
	maxUpload int64
}

// NewOCRHandler builds the handler. maxUpload <= 0 disables the body limit.
func NewOCRHandler(svc OCRService, maxUpload int64) *OCRHandler {
	return &OCRHandler{service: svc, maxUpload: maxUpload}
}

// HandleImage recognizes an image uploaded as multipart field "image".
// Handled recognition failures are reported with 200 and success=false.
func (h *OCRHandler) HandleImage(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, ocr.ErrImageTooLarge)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid multipart payload",
		})
		return
	}

	file, _, err := c.Request.FormFile(FormField)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "missing image",
		})
		return
	}
	defer file.Close()

	res, err := h.service.RecognizeUpload(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type urlRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// HandleURL downloads the image at {"url": ...} and recognizes it.
func (h *OCRHandler) HandleURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	res, err := h.service.RecognizeURL(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleProviders probes every provider and reports which are usable.
func (h *OCRHandler) HandleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.service.Providers(c.Request.Context()),
	})
}

func (h *OCRHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var fetchErr *service.FetchError
	switch {
	case errors.Is(err, ocr.ErrImageTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
	case errors.Is(err, service.ErrEmptyImage):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "empty image"})
	case errors.As(err, &fetchErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "cannot fetch image"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ocr error"})
	}
}
