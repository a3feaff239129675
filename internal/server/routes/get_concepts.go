package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumen-edu/lumen/internal/server/middleware"
)

// GetConceptHandler returns a concept with its relations and graph
// neighborhood. The depth query parameter bounds the neighborhood walk.
func GetConceptHandler(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Missing concept name"})
	}

	depth := 1
	if raw := c.QueryParam("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid depth"})
		}
		depth = parsed
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	g, err := app.Graph.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Knowledge graph unavailable"})
	}

	node, err := g.GetConcept(ctx, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to read concept"})
	}
	if node == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Concept not found"})
	}

	relations, err := g.Relations(ctx, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to read relations"})
	}

	related, err := g.GetRelated(ctx, name, depth)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to walk graph"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"concept":   node,
		"relations": relations,
		"related":   related,
	})
}

// GetGraphStatsHandler returns node, edge, and density numbers for the
// knowledge graph.
func GetGraphStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	g, err := app.Graph.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Knowledge graph unavailable"})
	}

	stats, err := g.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to read graph stats"})
	}

	return c.JSON(http.StatusOK, stats)
}
