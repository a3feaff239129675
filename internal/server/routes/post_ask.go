package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-edu/lumen/internal/server/middleware"
)

// AskTutorHandler answers a student question from the indexed material.
func AskTutorHandler(c echo.Context) error {
	type askBody struct {
		Query string `json:"query" validate:"required"`
	}

	data := new(askBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	res := app.Orchestrator.AskTutor(c.Request().Context(), data.Query)
	if !res.Success {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": res.Error})
	}

	return c.JSON(http.StatusOK, res.Payload)
}
