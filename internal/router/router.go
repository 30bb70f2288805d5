package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Auth   middleware.TokenValidator
	Images service.ImageStore
	// MediaDir is served under Config.MediaURL when images are stored locally.
	MediaDir string
	// Limiter guards recipe writes; nil disables rate limiting.
	Limiter middleware.Limiter
	Metrics *middleware.Metrics
	Logger  *zap.Logger
}

// SetupRouter wires services, handlers and middleware into a gin engine.
func SetupRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", deps.Metrics.Handler())
	}
	router.NoRoute(middleware.NoRoute)

	router.GET("/healthz", api.HealthHandler(deps.DB))
	if deps.MediaDir != "" {
		router.Static(cfg.MediaURL, deps.MediaDir)
	}

	catalog := service.NewCatalogService(deps.DB)
	validator := service.NewCompositionValidator(catalog, catalog)
	search := service.NewSearchIndex(deps.DB, logger)
	recipes := service.NewRecipeService(deps.DB, validator, deps.Images, search, logger)
	users := service.NewUserService(deps.DB, logger)
	shopping := service.NewShoppingListService(deps.DB)

	requireAuth := middleware.RequireAuth(deps.Auth)
	var writeLimit []gin.HandlerFunc
	if deps.Limiter != nil {
		writeLimit = append(writeLimit, middleware.RateLimit(deps.Limiter, logger))
	}

	v1 := router.Group("/api")
	v1.Use(middleware.OptionalAuth(deps.Auth))

	api.NewCatalogHandler(catalog, logger).RegisterRoutes(v1)
	api.NewRecipeHandler(
		recipes,
		shopping,
		service.NewFavorites(deps.DB),
		service.NewShoppingCart(deps.DB),
		cfg.PageSize,
		logger,
	).RegisterRoutes(v1, requireAuth, writeLimit...)
	api.NewUserHandler(users, cfg.PageSize, logger).RegisterRoutes(v1, requireAuth)

	return router
}
