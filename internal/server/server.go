package server

import (
	"time"

	"github.com/vxvxzs/RaceSpace/internal/analysis"
	"github.com/vxvxzs/RaceSpace/internal/auth"
	"github.com/vxvxzs/RaceSpace/internal/config"
	"github.com/vxvxzs/RaceSpace/internal/profile"
	"github.com/vxvxzs/RaceSpace/internal/ratelimit"
	"github.com/vxvxzs/RaceSpace/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	fiberCfg := fiber.Config{}
	if cfg.UploadMaxBytes > 0 {
		fiberCfg.BodyLimit = int(cfg.UploadMaxBytes)
	}
	app := fiber.New(fiberCfg)
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	var limiterStore ratelimit.Store
	if s.Redis != nil {
		limiterStore = ratelimit.NewRedisStore(s.Redis)
	}
	limiter := ratelimit.Middleware(limiterStore, s.Cfg.RateLimitPerMin, time.Minute)

	var narrator analysis.Narrator
	if s.Cfg.AIEndpoint != "" {
		narrator = analysis.NewAIClient(s.Cfg)
	}

	analysisSvc := analysis.NewService(s.DB, narrator, s.Stream, analysis.Options{
		SampleTarget: s.Cfg.TrackSampleTarget,
		SmoothWindow: s.Cfg.SmoothWindow,
		DetectStride: s.Cfg.DetectStride,
	})

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	analysis.RegisterRoutes(s.App.Group("/analysis"), analysisSvc, jwtMiddleware, limiter, s.Cfg.UploadMaxBytes)
	profile.RegisterRoutes(s.App.Group("/profile"), profile.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
