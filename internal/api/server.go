// Package api exposes the state engine to the rendering layer over HTTP
// and a websocket event stream.
package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/medtrack/medtrackd/internal/auth"
	"github.com/medtrack/medtrackd/internal/config"
	"github.com/medtrack/medtrackd/internal/dose"
	"github.com/medtrack/medtrackd/internal/metrics"
	"github.com/medtrack/medtrackd/internal/pharmacy"
	"github.com/medtrack/medtrackd/internal/schedule"
	"github.com/medtrack/medtrackd/internal/store"
)

// Server handles the HTTP API and websocket event stream.
type Server struct {
	app        *fiber.App
	config     *config.Config
	store      *store.Store
	evaluator  *schedule.Evaluator
	processor  *dose.Processor
	auth       *auth.Manager
	pharmacies *pharmacy.Store
	metrics    *metrics.Metrics
	hub        *Hub
	validate   *validator.Validate
	logger     *zap.Logger
}

// Deps collects the server's collaborators.
type Deps struct {
	Config     *config.Config
	Store      *store.Store
	Evaluator  *schedule.Evaluator
	Processor  *dose.Processor
	Auth       *auth.Manager
	Pharmacies *pharmacy.Store
	Metrics    *metrics.Metrics
	Hub        *Hub
	Logger     *zap.Logger
}

// New creates the API server and registers all routes.
func New(d Deps) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(d.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(d.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = NewHub(d.Logger)
	}

	s := &Server{
		app:        app,
		config:     d.Config,
		store:      d.Store,
		evaluator:  d.Evaluator,
		processor:  d.Processor,
		auth:       d.Auth,
		pharmacies: d.Pharmacies,
		metrics:    d.Metrics,
		hub:        d.Hub,
		validate:   validator.New(),
		logger:     d.Logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	if s.metrics != nil {
		s.app.Use(s.metricsMiddleware())
	}

	s.app.Get("/api/health", s.handleHealth)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := s.app.Group("/api")

	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/signup", s.handleSignup)
	api.Post("/auth/guest", s.handleGuest)

	protected := api.Use(s.authMiddleware())

	protected.Post("/auth/logout", s.handleLogout)

	// Fixed view routes must precede the :id routes.
	protected.Get("/medications/today", s.handleToday)
	protected.Get("/medications/upcoming", s.handleUpcoming)
	protected.Get("/medications/low-stock", s.handleLowStock)

	protected.Get("/medications", s.handleListMedications)
	protected.Post("/medications", s.handleAddMedication)
	protected.Delete("/medications/:id", s.handleDeleteMedication)
	protected.Post("/medications/:id/confirm", s.handleConfirm)
	protected.Post("/medications/:id/skip", s.handleSkip)
	protected.Post("/medications/:id/remind", s.handleRemind)

	protected.Get("/history", s.handleHistory)
	protected.Get("/stats", s.handleStats)

	protected.Get("/settings", s.handleGetSettings)
	protected.Put("/settings", s.handleUpdateSettings)
	protected.Get("/theme", s.handleGetTheme)
	protected.Put("/theme", s.handleSetTheme)

	protected.Get("/pharmacies", s.handleSearchPharmacies)

	s.app.Get("/ws", fiberws.New(s.hub.serve))
}

// Start listens on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("api server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		s.metrics.HTTPRequests.WithLabelValues(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Inc()
		return err
	}
}
