package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codelearn/internal/cache"
	"codelearn/internal/config"
	"codelearn/internal/database"
	"codelearn/internal/featureflags"
	"codelearn/internal/middleware"
	"codelearn/internal/models"
	"codelearn/internal/repository"
	"codelearn/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const apiVersion = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	store              *repository.Store
	authService        *service.AuthService
	userService        *service.UserService
	postService        *service.PostService
	groupService       *service.GroupService
	contestService     *service.ContestService
	discussionService  *service.DiscussionService
	leaderboardService *service.LeaderboardService

	notificationService *service.NotificationService
}

// NewServer connects to the database and Redis and creates a server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServer(cfg, db, redisClient, nil), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, clock service.Clock) *Server {
	store := repository.NewStore(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	if bad := flags.Invalid(); len(bad) > 0 {
		middleware.Logger.Warn("ignoring malformed feature flags", "entries", bad)
	}

	return &Server{
		config:             cfg,
		db:                 db,
		redis:              redisClient,
		promMiddleware:     middleware.InitMetrics("codelearn-api"),
		featureFlags:       flags,
		store:              store,
		authService:        service.NewAuthService(store.Users),
		userService:        service.NewUserService(store.Users),
		postService:        service.NewPostService(store.Repos, store),
		groupService:       service.NewGroupService(store.Repos, store),
		contestService:     service.NewContestService(store.Repos, store, flags, clock),
		discussionService:  service.NewDiscussionService(store.Repos, store),
		leaderboardService: service.NewLeaderboardService(store.Leaderboard, store.Users, flags),

		notificationService: service.NewNotificationService(store.Notifications),
	}
}

// App builds the fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "CodeLearn API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

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

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
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

	api := app.Group("/api")
	api.Get("/", s.APIInfo)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CodeLearn API Metrics",
	}))

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.GetMe)
	auth.Put("/profile", s.AuthRequired(), s.UpdateProfile)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/user/:userId", s.GetUserPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id routes
	posts.Put("/:id/like", s.AuthRequired(), s.TogglePostLike)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	groups := api.Group("/groups")
	groups.Get("/all", s.GetPublicGroups)
	groups.Get("/owner/:userId", s.GetOwnedGroups)
	groups.Get("/", s.AuthRequired(), s.GetMyGroups)
	groups.Post("/", s.AuthRequired(), s.CreateGroup)
	groups.Post("/:id/join", s.AuthRequired(), s.JoinGroup)
	groups.Delete("/:id/leave", s.AuthRequired(), s.LeaveGroup)
	groups.Get("/:id", s.AuthRequired(), s.GetGroup)
	groups.Delete("/:id", s.AuthRequired(), s.DeleteGroup)

	contests := api.Group("/contests")
	contests.Get("/", s.GetContests)
	contests.Get("/organizer/:userId", s.GetOrganizedContests)
	contests.Get("/:id/standings", s.GetStandings)
	contests.Get("/:id", s.GetContest)
	contests.Post("/", s.AuthRequired(), s.CreateContest)
	contests.Post("/:id/submit", s.AuthRequired(), middleware.RateLimit(
		s.redis, 30, time.Minute, "submit"), s.SubmitSolution)
	contests.Put("/:id/status", s.AuthRequired(), s.RefreshContestStatus)
	contests.Delete("/:id", s.AuthRequired(), s.DeleteContest)

	discussions := api.Group("/discussions")
	discussions.Get("/:postId", s.GetDiscussion)
	discussions.Post("/:postId/comment", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.AddComment)
	discussions.Post("/:postId/comment/:commentId/reply", s.AuthRequired(), s.AddReply)
	discussions.Put("/:postId/comment/:commentId/like", s.AuthRequired(), s.ToggleCommentLike)
	discussions.Delete("/:postId/comment/:commentId", s.AuthRequired(), s.DeleteComment)

	leaderboard := api.Group("/leaderboard")
	leaderboard.Get("/global", s.GetGlobalLeaderboard)
	leaderboard.Get("/groups", s.GetGroupLeaderboard)
	leaderboard.Get("/college", s.AuthRequired(), s.GetCollegeLeaderboard)
	leaderboard.Get("/department/:department", s.AuthRequired(), s.GetDepartmentLeaderboard)

	notifications := api.Group("/notifications", s.AuthRequired())
	notifications.Get("/", s.GetNotifications)
	notifications.Put("/read-all", s.MarkAllNotificationsRead)
	notifications.Put("/:id/read", s.MarkNotificationRead)

	api.Get("/feature-flags", s.AuthRequired(), s.GetFeatureFlags)
}

// APIInfo handles GET /api
func (s *Server) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "CodeLearn API",
		"version": apiVersion,
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
