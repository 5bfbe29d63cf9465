package review

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the review endpoints on the router.
func RegisterRoutes(router *gin.Engine, service *Service) {
	handler := &httpHandler{service: service}
	router.GET("/files", handler.listFiles)
	router.GET("/download", handler.download)
	router.POST("/approve", handler.approve)
	router.POST("/reject", handler.reject)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) listFiles(c *gin.Context) {
	query := ListQuery{
		Status:    c.Query("status_folder"),
		ProjectID: c.Query("proj_id"),
		Year:      intQuery(c, "year"),
		Month:     intQuery(c, "month"),
		PageSize:  intQuery(c, "page_size"),
		PageToken: c.Query("page_token"),
	}

	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []ListItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"prefix":          result.Prefix,
		"count":           len(items),
		"items":           items,
		"next_page_token": result.NextPageToken,
	})
}

func (h *httpHandler) download(c *gin.Context) {
	ref := param(c, "gcs_uri")
	if ref == "" {
		ref = param(c, "object_name")
	}
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Provide gcs_uri or object_name"})
		return
	}

	url, err := h.service.SignedDownloadURL(c.Request.Context(), ref, intQuery(c, "expires_minutes"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "signed_url": url})
}

func (h *httpHandler) approve(c *gin.Context) {
	ref := param(c, "gcs_uri")
	if ref == "" {
		ref = param(c, "object_name")
	}
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Provide gcs_uri or object_name"})
		return
	}

	approver := param(c, "approver")
	if approver == "" {
		approver = "admin"
	}

	result, err := h.service.Approve(c.Request.Context(), ref, approver)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"from":   result.From,
		"to":     result.To,
		"status": result.Status,
	})
}

func (h *httpHandler) reject(c *gin.Context) {
	key := param(c, "object_name")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "object_name is required"})
		return
	}

	result, err := h.service.Reject(c.Request.Context(), key, param(c, "rejector"), param(c, "feedback"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"from":   blob.URI(h.service.store, result.From),
		"to":     blob.URI(h.service.store, result.To),
		"status": result.Status,
	})
}

// param reads a value from query string or form body, query taking priority.
func param(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}

func intQuery(c *gin.Context, name string) int {
	v := c.Query(name)
	if v == "" {
		return 0
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return -1 // out of every valid range, surfaces as InvalidArgument
	}
	return parsed
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidPageSize),
		errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "operation failed"})
	}
}
