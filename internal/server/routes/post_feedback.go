package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-edu/lumen/internal/server/middleware"
	"github.com/lumen-edu/lumen/pkg/feedback"
)

// SubmitFeedbackHandler records a student's rating of a tutoring answer.
func SubmitFeedbackHandler(c echo.Context) error {
	type feedbackBody struct {
		Query            string `json:"query" validate:"required"`
		Response         string `json:"response" validate:"required"`
		Rating           int    `json:"rating" validate:"required,min=1,max=5"`
		Comments         string `json:"comments"`
		ImprovedResponse string `json:"improved_response"`
	}

	data := new(feedbackBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	entry, err := app.Feedback.Submit(feedback.Entry{
		Query:            data.Query,
		Response:         data.Response,
		Rating:           data.Rating,
		Comments:         data.Comments,
		ImprovedResponse: data.ImprovedResponse,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	return c.JSON(http.StatusCreated, entry)
}

// GetFeedbackStatsHandler summarizes the collected feedback.
func GetFeedbackStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	stats, err := app.Feedback.Stats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to read feedback"})
	}

	return c.JSON(http.StatusOK, stats)
}
