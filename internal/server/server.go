// Package server wires the stores, services and GraphQL schema into a Fiber app.
package server

import (
	"context"
	"fmt"
	"time"

	"socialql/internal/auth"
	"socialql/internal/cache"
	"socialql/internal/config"
	"socialql/internal/graph"
	"socialql/internal/middleware"
	"socialql/internal/notifications"
	"socialql/internal/observability"
	"socialql/internal/repository"
	"socialql/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and serves the GraphQL API.
type Server struct {
	config         *config.Config
	store          *Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	userService    *service.UserService
	postService    *service.PostService
	schema         *graphql.Schema
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store connection failed: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("store schema setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, store, cache.Connect(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, login limiting and events are then off.
func NewServerWithDeps(cfg *config.Config, store *Store, redisClient *redis.Client) (*Server, error) {
	hasher := auth.NewHasher(cfg.BcryptCost)
	codec := auth.NewTokenCodec(cfg.SecretKey, nil)
	loginLimiter := cache.NewAttemptLimiter(
		redisClient,
		"login",
		cfg.LoginMaxAttempts,
		time.Duration(cfg.LoginWindowSeconds)*time.Second,
		middleware.RateLimitBypassed(cfg.Env),
	)
	postCache := cache.New(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	server := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialql-api"),
		notifier:       notifications.NewNotifier(redisClient),
	}
	server.userService = service.NewUserService(store.Users, hasher, codec, loginLimiter)
	server.postService = service.NewPostService(
		repository.NewCachedPostRepository(store.Posts, postCache),
		server.notifier,
	)

	resolver := graph.NewResolver(server.userService, server.postService, auth.NewGuard(codec), !cfg.IsProduction())
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return nil, err
	}
	server.schema = schema

	return server, nil
}

// UserService exposes the account operations for the CLI tools.
func (s *Server) UserService() *service.UserService { return s.userService }

// PostService exposes the post operations for the CLI tools.
func (s *Server) PostService() *service.PostService { return s.postService }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS must run before anything that can short-circuit so error
	// responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || middleware.RateLimitBypassed(s.config.Env)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	graphqlLimit := middleware.RateLimit(s.redis, s.config.Env, 120, time.Minute, "graphql")
	app.Post("/graphql", graphqlLimit, s.GraphQL)
	app.Get("/graphql", graphqlLimit, s.GraphQL)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the store and Redis status. Redis is optional, so
// only an unreachable store makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		observability.Logger.WarnContext(ctx, "store ping failed", "error", err)
		storeStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"store":  storeStatus,
			"driver": s.store.Driver,
			"redis":  redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "socialql",
		ErrorHandler: s.errorHandler,
		BodyLimit:    1 << 20,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.notifier.StartSubscriber(s.shutdownCtx, func(ev notifications.PostEvent) {
		observability.Logger.Debug("post event",
			"type", ev.Type,
			"post_id", ev.PostID,
			"username", ev.Username,
		)
	}); err != nil {
		observability.Logger.Warn("failed to subscribe to post events", "error", err)
	}

	observability.Logger.Info("server starting",
		"port", s.config.Port,
		"store", s.store.Driver,
		"redis", s.redis != nil,
	)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.store.Close(ctx); err != nil {
		observability.Logger.Error("error closing store", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.Error("error closing redis", "error", err)
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
