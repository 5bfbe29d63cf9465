package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if deps.DB != nil {
			if err := deps.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"ok":        false,
					"component": "postgres",
					"detail":    err.Error(),
				})
				return
			}
		}

		if deps.ObjectStore != nil {
			if _, err := deps.ObjectStore.List(ctx, "", 1, ""); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"ok":        false,
					"component": "blob",
					"detail":    err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}
