package router

import (
	"time"

	"promotions/internal/config"
	"promotions/internal/handler"
	"promotions/internal/middleware"
	"promotions/internal/repository"
	"promotions/internal/service"
	"promotions/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	promotionRepo := repository.NewPromotionRepository(db)
	productRepo := repository.NewProductRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	promotionSvc := service.NewPromotionService(promotionRepo, dispatcher)
	offerSvc := service.NewOfferService(promotionRepo, rdb, cfg.OfferCacheTTL())

	// ── Handlers ─────────────────────────────────────────────────────────────
	promotionsH := handler.NewPromotionsHandler(promotionSvc)
	offersH := handler.NewOffersHandler(offerSvc)
	productsH := handler.NewProductsHandler(productRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/", handler.Index)
	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		// Reads are always open
		v1.GET("/promotions", promotionsH.List)
		v1.GET("/promotions/apply", middleware.ApplyRateLimiter(), offersH.Apply)
		v1.GET("/promotions/:id", promotionsH.Get)
		v1.GET("/products", productsH.List)

		// Writes go through the JWT guard (disabled when no secret is set)
		guard := middleware.WriteGuard(cfg.JWTSecret)
		v1.POST("/promotions", guard, promotionsH.Create)
		v1.PUT("/promotions/:id", guard, promotionsH.Update)
		v1.DELETE("/promotions/:id", guard, promotionsH.Delete)
		v1.POST("/promotions/:id/cancel", guard, promotionsH.Cancel)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
