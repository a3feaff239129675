package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lumen-edu/lumen/internal/queue"
	"github.com/lumen-edu/lumen/internal/server/middleware"
	"github.com/lumen-edu/lumen/pkg/logger"
)

// IngestDocumentHandler takes a document into the tutoring knowledge base.
// With a broker configured the job is queued for the worker; without one
// the pipeline runs synchronously in the request.
func IngestDocumentHandler(c echo.Context) error {
	type ingestBody struct {
		DocumentPath string `json:"document_path" validate:"required"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	if app.Queue != nil {
		jobID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to create job"})
		}

		err = queue.PublishIngestJob(app.Queue, queue.IngestJobMsg{
			JobID:        jobID,
			DocumentPath: data.DocumentPath,
		})
		if err != nil {
			logger.Error("[API] failed to queue ingest job", "document", data.DocumentPath, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to queue document"})
		}

		return c.JSON(http.StatusAccepted, map[string]string{
			"job_id": jobID,
			"status": "queued",
		})
	}

	res := app.Orchestrator.IngestDocument(c.Request().Context(), data.DocumentPath)
	if !res.Success {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": res.Error})
	}

	return c.JSON(http.StatusOK, res.Payload)
}
