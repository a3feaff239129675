package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/lumen-edu/lumen/pkg/feedback"
	"github.com/lumen-edu/lumen/pkg/orchestrator"
	"github.com/lumen-edu/lumen/pkg/store"
)

// AppUser identifies the authenticated caller.
type AppUser struct {
	Subject string
	Role    string
}

// App is the shared application state. Queue is nil when no broker is
// configured; Key is nil when JWT auth is disabled.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Feedback     *feedback.Service
	Queue        *amqp091.Channel
	Graph        *store.Lazy[store.GraphStore]
	Key          *keyfunc.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// AppContextMiddleware attaches the shared application state to every
// request. The pipeline is built once at startup; its store connections
// are established lazily on first use.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
