package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lumen-edu/lumen/internal/queue"
	mid "github.com/lumen-edu/lumen/internal/server/middleware"
	"github.com/lumen-edu/lumen/internal/setup"
	"github.com/lumen-edu/lumen/internal/util"
	"github.com/lumen-edu/lumen/pkg/feedback"
	"github.com/lumen-edu/lumen/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/rabbitmq/amqp091-go"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT auth is enabled by pointing AUTH_URL at an identity provider.
	var key *keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	// Asynchronous ingestion is enabled by configuring RABBITMQ_HOST.
	var ch *amqp091.Channel
	if util.GetEnv("RABBITMQ_HOST") != "" {
		conn := queue.Init()
		defer conn.Close()

		channel, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer channel.Close()

		if err := queue.SetupQueues(channel, []string{queue.IngestQueue}); err != nil {
			logger.Fatal("Failed to declare queues", "err", err)
		}
		ch = channel
	}

	pipeline := setup.NewPipeline(ctx)

	feedbackPath := util.GetEnvString("FEEDBACK_PATH", "data/feedback.json")
	if err := os.MkdirAll(filepath.Dir(feedbackPath), 0o755); err != nil {
		logger.Fatal("Failed to create feedback directory", "err", err)
	}

	app := &mid.App{
		Orchestrator: pipeline.Orchestrator,
		Feedback:     feedback.NewService(feedbackPath),
		Queue:        ch,
		Graph:        pipeline.Graph,
		Key:          key,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("50M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
