package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"photorank/internal/config"
	"photorank/internal/middleware"
	"photorank/internal/ratelimit"
	"photorank/internal/repository"
	"photorank/internal/service"
	"photorank/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	cache       *redis.Client
	submits     *service.SubmitService
	leaderboard *service.LeaderboardService
	imageSvc    *service.ImageService
	maintenance *service.MaintenanceService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	imageRepo := repository.NewImageRepository(db)
	ratingRepo := repository.NewRatingRepository(db)

	var limiter ratelimit.Limiter
	if cache != nil {
		limiter = ratelimit.NewRedisLimiter(cache, cfg.Engine.DailyRateCap, log)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Engine.DailyRateCap)
	}

	stats := service.NewStatsService(imageRepo, ratingRepo, log)
	submits := service.NewSubmitService(imageRepo, ratingRepo, stats, limiter, cfg.Engine, log)
	leaderboard := service.NewLeaderboardService(imageRepo, cfg.Engine, log)
	maintenance := service.NewMaintenanceService(imageRepo, ratingRepo, stats, log)

	var verifier service.ObjectVerifier
	if store != nil {
		verifier = store
	}
	imageSvc := service.NewImageService(imageRepo, verifier, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		submits:     submits,
		leaderboard: leaderboard,
		imageSvc:    imageSvc,
		maintenance: maintenance,
	}
}

// Maintenance exposes the maintenance service so the scheduler shares it
// with the HTTP path. One StatsService behind it means one keyed-mutex map:
// cron recomputes and submission recomputes for the same image serialize.
func (h HandlerSet) Maintenance() *service.MaintenanceService {
	return h.maintenance
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/session", h.NewSession)

	ratings := router.Group("/ratings")
	ratings.POST("/submit", h.SubmitRating)

	router.GET("/leaderboard", h.Leaderboard)
	router.GET("/leaderboard/around/:imageId", h.LeaderboardAround)

	router.GET("/images/:id", h.GetImage)
	router.POST("/images", h.RegisterImage)

	admin := router.Group("/admin")
	admin.POST("/login", h.AdminLogin)

	protected := router.Group("/admin")
	protected.Use(middleware.Admin(h.cfg))
	protected.DELETE("/images/:id/ratings", h.PurgeRatings)
	protected.POST("/maintenance/dedupe", h.DedupeSessions)
	protected.POST("/maintenance/reconcile", h.ReconcileStats)
}
