package intake

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the intake endpoints on the router.
func RegisterRoutes(router *gin.Engine, service *Service) {
	handler := &httpHandler{service: service}
	router.POST("/upload", handler.upload)
	router.POST("/submit-json", handler.submitJSON)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read file payload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read file payload"})
		return
	}

	result, err := h.service.UploadCSV(c.Request.Context(), UploadInput{
		Content:        content,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		ProjectID:      c.PostForm("proj_id"),
		Filename:       c.PostForm("filename"),
		Uploader:       c.PostForm("uploader"),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"gcs_uri": result.URI,
		"status":  result.Status,
	})
}

type submitJSONRequest struct {
	QuestionsMain []BatchRecord `json:"questions_main"`
	Uploader      string        `json:"uploader"`
}

func (h *httpHandler) submitJSON(c *gin.Context) {
	var req submitJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": ErrInvalidPayloadShape.Error()})
		return
	}

	written, err := h.service.IngestBatch(c.Request.Context(), req.QuestionsMain, req.Uploader, c.GetHeader("Idempotency-Key"))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(written))
	for _, w := range written {
		items = append(items, gin.H{
			"project_id": w.ProjectID,
			"gcs_uri":    w.URI,
			"count":      w.RecordCount,
			"status":     w.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "written": items})
}

func writeError(c *gin.Context, err error) {
	var recErr *RecordError
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrEmptyPayload),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidPayloadShape),
		errors.As(err, &recErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to ingest payload"})
	}
}
