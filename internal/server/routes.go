package server

import (
	"github.com/lumen-edu/lumen/internal/server/middleware"
	"github.com/lumen-edu/lumen/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Ingestion and tutoring routes
	apiRoutes.POST("/ingest", routes.IngestDocumentHandler)
	apiRoutes.POST("/ask", routes.AskTutorHandler)

	// Knowledge graph routes
	apiRoutes.GET("/concepts/:name", routes.GetConceptHandler)
	apiRoutes.GET("/graph/stats", routes.GetGraphStatsHandler)

	// Feedback routes
	apiRoutes.POST("/feedback", routes.SubmitFeedbackHandler)
	apiRoutes.GET("/feedback/stats", routes.GetFeedbackStatsHandler)
}
