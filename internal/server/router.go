package server

import (
	"net/http"

	"github.com/gfi/datareview/internal/auth"
	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/config"
	"github.com/gfi/datareview/internal/intake"
	"github.com/gfi/datareview/internal/metrics"
	"github.com/gfi/datareview/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	DB            *pgxpool.Pool
	ObjectStore   blob.Store
	AuthService   *auth.Service
	IntakeService *intake.Service
	ReviewService *review.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(corsMiddleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.AuthService != nil {
		auth.RegisterRoutes(router, deps.AuthService)
	}
	if deps.IntakeService != nil {
		intake.RegisterRoutes(router, deps.IntakeService)
	}
	if deps.ReviewService != nil {
		review.RegisterRoutes(router, deps.ReviewService)
	}

	return router
}

// corsMiddleware allows browser clients on any origin to call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
