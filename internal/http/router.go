package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/julihealth/wellness-backend/internal/http/handlers"
	httpMW "github.com/julihealth/wellness-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware *httpMW.AuthMiddleware

	ScoreHandler       *httpH.ScoreHandler
	ObservationHandler *httpH.ObservationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Scores
		if cfg.ScoreHandler != nil {
			protected.GET("/scores/latest", cfg.ScoreHandler.GetLatestAll)
			protected.GET("/scores/latest/:condition_code", cfg.ScoreHandler.GetLatest)
			protected.GET("/scores/history/:condition_code", cfg.ScoreHandler.GetHistory)
			protected.GET("/scores/factors/:condition_code", cfg.ScoreHandler.GetFactors)
		}

		// Observations
		if cfg.ObservationHandler != nil {
			protected.POST("/observations", cfg.ObservationHandler.Ingest)
		}
	}

	return r
}
