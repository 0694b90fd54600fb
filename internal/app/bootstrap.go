package app

import (
	"context"
	"fmt"
	"strings"

	"anti-ghosting/internal/config"
	"anti-ghosting/internal/delivery/http/handler"
	"anti-ghosting/internal/delivery/http/middleware"
	"anti-ghosting/internal/delivery/http/routes"
	v1 "anti-ghosting/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// NewHTTP builds the fiber app over already wired services.
func NewHTTP(cfg config.Config, svcs *Services, checks map[string]handler.Pinger, logger logrus.FieldLogger) *fiber.App {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, logger)
	registerRoutes(f, cfg, svcs, checks)

	return f
}

// Bootstrap connects every dependency and returns the HTTP app with its
// cleanup function.
func Bootstrap(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger, ContainerOptions{Migrate: true})
	if err != nil {
		return nil, nil, err
	}

	checks := map[string]handler.Pinger{"postgres": c.DB}
	f := NewHTTP(cfg, c.Services, checks, logger)
	return &App{Fiber: f, Container: c}, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger logrus.FieldLogger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, cfg config.Config, svcs *Services, checks map[string]handler.Pinger) {
	if app == nil || svcs == nil {
		return
	}

	reg := routes.NewRegistry(handler.NewHealthHandler(checks), v1.Handlers{
		Applications:  handler.NewApplicationHandler(svcs.Applications, svcs.Clock),
		Suggestions:   handler.NewSuggestionHandler(svcs.Suggestions),
		Reputation:    handler.NewReputationHandler(svcs.Reputation),
		Notifications: handler.NewNotificationHandler(svcs.Notifications),
		Sweeps:        handler.NewSweepHandler(svcs.Sweeper, svcs.Locker, cfg.Worker.SweepInterval),
	})
	reg.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
