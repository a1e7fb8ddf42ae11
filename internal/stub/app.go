package stub

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/winnerx0/jille-client/internal/config"
	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/metrics"
)

// New assembles the stub backend: routes, middleware stack, broker, and
// stores. The broker runs until ctx is done.
func New(ctx context.Context, cfg *config.Config) *fiber.App {
	metrics.Init()

	store := NewStore()
	issuer := NewTokenIssuer(cfg.AccessSecret, cfg.AccessTokenTTL, store)
	broker := NewBroker()
	broker.Start(ctx)
	h := NewHandlers(store, issuer, broker)

	app := fiber.New(fiber.Config{
		AppName:      "jille-stub",
		ServerHeader: "jille-stub",
	})

	app.Use(recoverer.New())
	app.Use(requestLogger())
	app.Use(newCORS(cfg.CORSOrigins))

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metricsHandler())

	api := app.Group("/api/v1")

	api.Post("/auth/register", h.Register)
	api.Post("/auth/login", h.Login)
	api.Post("/auth/refresh", h.Refresh)

	userRouter := api.Group("/user", issuer.Middleware)
	userRouter.Get("/:userID", h.GetUser)

	pollRouter := api.Group("/poll", issuer.Middleware)
	pollRouter.Post("/create", h.CreatePoll)
	pollRouter.Get("/all", h.ListPolls)
	pollRouter.Get("/view/:pollID", h.GetPollView)
	pollRouter.Get("/:pollID", h.GetPoll)
	pollRouter.Post("/:pollID", h.DeletePoll)

	voteRouter := api.Group("/vote", issuer.Middleware)
	voteRouter.Post("/", h.Vote, NewVoteRateLimiter().Handler())

	api.Get("/sse", h.SSE)

	return app
}

// requestLogger logs each request as structured JSON via zerolog.
func requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		evt := logging.Logger.Info()
		if status >= 500 {
			evt = logging.Logger.Error()
		} else if status >= 400 {
			evt = logging.Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration_ms", time.Since(start)).
			Msg("request")

		return err
	}
}

func newCORS(corsOrigins string) fiber.Handler {
	origins := []string{"*"}
	if corsOrigins != "" && corsOrigins != "*" {
		origins = strings.Split(corsOrigins, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodOptions,
		},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	})
}

// metricsHandler serves the Prometheus /metrics endpoint via Fiber.
func metricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
