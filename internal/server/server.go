// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "profilegraph/docs" // swagger docs
	"profilegraph/internal/bootstrap"
	"profilegraph/internal/config"
	"profilegraph/internal/featureflags"
	"profilegraph/internal/middleware"
	"profilegraph/internal/models"
	"profilegraph/internal/policy"
	"profilegraph/internal/repository"
	"profilegraph/internal/service"
	"profilegraph/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownTracing func(context.Context) error
	images          *storage.ImageStore
	featureFlags    *featureflags.Manager
	userRepo        repository.UserRepository
	profileService  *service.ProfileService
	postService     *service.PostService
	likeService     *service.LikeService
	commentService  *service.CommentService
	tagService      *service.TagService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}

	s, err := NewServerWithDeps(cfg, rt.DB, rt.Redis)
	if err != nil {
		return nil, err
	}
	s.shutdownTracing = rt.ShutdownTracing
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with a sqlite database and a miniredis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)

	pol := policy.New(cfg.PublicActions)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	middleware.Logger.Info("feature flags loaded", slog.Any("flags", flags.Names()))
	images := storage.NewImageStore(cfg)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("profilegraph-api"),
		images:         images,
		featureFlags:   flags,
		userRepo:       userRepo,
		profileService: service.NewProfileService(profileRepo, images, pol, flags),
		postService:    service.NewPostService(postRepo, profileRepo, likeRepo, commentRepo, images, pol, flags),
		likeService:    service.NewLikeService(postRepo, likeRepo, pol, flags),
		commentService: service.NewCommentService(postRepo, commentRepo, pol, flags),
		tagService:     service.NewTagService(tagRepo, pol, flags),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	// Tracing before the context middleware so the trace id reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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

// SetupRoutes configures all API routes
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.images.Root(), fiber.Static{Browse: false})

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Every resource route accepts anonymous callers; the policy decides.
	v := api.Group("", middleware.OptionalAuth)
	writes := middleware.RateLimit(s.redis, 30, time.Minute, "writes")

	profiles := v.Group("/profile")
	profiles.Get("/", s.ListProfiles)
	profiles.Post("/", writes, s.CreateProfile)
	profiles.Post("/:id/follow", writes, s.FollowProfile)
	profiles.Post("/:id/unfollow", writes, s.UnfollowProfile)
	profiles.Get("/:id", s.GetProfile)
	profiles.Put("/:id", writes, s.UpdateProfile)
	profiles.Patch("/:id", writes, s.PartialUpdateProfile)
	profiles.Delete("/:id", writes, s.DeleteProfile)

	posts := v.Group("/post")
	posts.Get("/", s.ListPosts)
	posts.Post("/", writes, s.CreatePost)
	posts.Post("/:id/add_like", writes, s.AddLike)
	posts.Post("/:id/remove_like", writes, s.RemoveLike)
	posts.Post("/:id/add_comment", writes, s.AddComment)
	posts.Post("/:id/add_tag", writes, s.AddTag)
	posts.Get("/:id/comments", s.ListComments)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", writes, s.UpdatePost)
	posts.Patch("/:id", writes, s.PartialUpdatePost)
	posts.Delete("/:id", writes, s.DeletePost)

	likes := v.Group("/like")
	likes.Post("/", writes, s.CreateLike)
	likes.Delete("/:id", writes, s.DeleteLike)

	comments := v.Group("/comment")
	comments.Post("/", writes, s.CreateComment)

	tags := v.Group("/tag")
	tags.Get("/", s.ListTags)
	tags.Post("/", writes, s.CreateTag)
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Profilegraph API",
		BodyLimit: (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start listens on the configured port until the app is shut down.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
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

	if s.shutdownTracing != nil {
		if terr := s.shutdownTracing(ctx); terr != nil {
			middleware.Logger.Error("error flushing traces", slog.String("error", terr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
