package api

import (
	"context"
	"errors"
	"time"

	favoritesHandler "moodchef/internal/api/handlers/favorites"
	"moodchef/internal/api/handlers/health"
	recipeHandler "moodchef/internal/api/handlers/recipe"
	"moodchef/internal/api/middleware"
	"moodchef/internal/infrastructure/config"
	"moodchef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Suggester      recipeHandler.Suggester
	Favorites      favoritesHandler.Store
	TokenValidator *middleware.TokenValidator
	HealthChecks   map[string]health.Check
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("source", cfg.Pipeline.Source),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	common.UseJSONFieldNames()

	router := gin.New()

	// requestid 需在 Logger 之前，Logger 才能取得回應標頭中的 ID
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	healthH := health.NewHandler(cfg.App.Version, cfg.Pipeline.Source, deps.HealthChecks)
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	api.Use(requestTimeout(cfg.Server.RequestTimeout))
	{
		recipes := recipeHandler.NewHandler(deps.Suggester)
		api.POST("/recipe", recipes.HandleSuggest)
		api.POST("/recipes", recipes.HandleSuggestAll)

		if deps.Favorites != nil {
			favs := favoritesHandler.NewHandler(deps.Favorites)
			group := api.Group("/favorites", middleware.Auth(deps.TokenValidator))
			group.GET("", favs.HandleList)
			group.POST("", favs.HandleSave)
			group.DELETE("/:id", favs.HandleDelete)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("favorites_enabled", deps.Favorites != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// requestTimeout 設置請求超時，處理程序未回應即逾時時回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestID(c)),
				zap.Duration("timeout", timeout),
			)
			common.WriteError(c, common.ErrGatewayTimeout)
		}
	}
}
