package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodchef/internal/api"
	"moodchef/internal/api/handlers/health"
	"moodchef/internal/api/middleware"
	"moodchef/internal/core/ai/openrouter"
	aiService "moodchef/internal/core/ai/service"
	"moodchef/internal/core/favorites"
	"moodchef/internal/core/recipe"
	"moodchef/internal/core/spoonacular"
	"moodchef/internal/infrastructure/cache"
	"moodchef/internal/infrastructure/config"
	"moodchef/internal/infrastructure/database"
	"moodchef/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("source", cfg.Pipeline.Source),
		zap.String("spoonacular_api_key", config.MaskAPIKey(cfg.Spoonacular.APIKey)),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("database_driver", cfg.Database.Driver),
	)

	store, err := cache.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	defer store.Close()

	db, err := database.Open(cfg.Database, &favorites.Favorite{})
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	var (
		searcher  recipe.Searcher
		generator recipe.Generator
	)
	switch cfg.Pipeline.Source {
	case config.SourceGenerative:
		llm := openrouter.NewClient(cfg.OpenRouter)
		defer llm.Close()
		generator = aiService.NewService(llm, store)
	default:
		searcher = spoonacular.NewClient(cfg.Spoonacular, store)
	}
	suggestions := recipe.NewSuggestionService(searcher, generator, recipe.OptionsFromConfig(cfg.Pipeline))

	router := api.SetupRouter(cfg, api.Dependencies{
		Suggester:      suggestions,
		Favorites:      favorites.NewService(db),
		TokenValidator: middleware.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		HealthChecks: map[string]health.Check{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"cache":    store.Ping,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
