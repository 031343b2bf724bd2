// Package web serves the session dashboard: state and routing table as
// JSON, Prometheus metrics, and a live event websocket.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-nao/pkg/hub"
	"github.com/teslashibe/go-nao/pkg/router"
	"github.com/teslashibe/go-nao/pkg/telemetry"
)

// Server is the dashboard server. It is also a telemetry.Sink: published
// events are broadcast to websocket clients.
type Server struct {
	app      *fiber.App
	addr     string
	events   *hub.Hub
	recorder *telemetry.Recorder
	gatherer prometheus.Gatherer
	script   *router.Script
	logger   *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithGatherer exposes metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithScript exposes the script's routing table on /api/routes.
func WithScript(sc *router.Script) Option {
	return func(s *Server) {
		s.script = sc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a dashboard listening on addr (e.g. ":8080").
func NewServer(addr string, rec *telemetry.Recorder, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		recorder: rec,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.events = hub.New("events", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "NAO Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/state", s.handleState)
	api.Get("/events", s.handleEvents)
	api.Get("/routes", s.handleRoutes)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the event hub and serves until ctx is done or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	go s.events.Run(ctx)
	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Publish broadcasts an event to websocket clients.
func (s *Server) Publish(ev telemetry.Event) error {
	return s.events.BroadcastJSON(ev)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.events.ClientCount()
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

var _ telemetry.Sink = (*Server)(nil)
