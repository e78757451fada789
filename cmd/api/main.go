package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sproutchef/internal/api"
	"sproutchef/internal/config"
	"sproutchef/internal/docstore"
	"sproutchef/internal/grocery"
	"sproutchef/internal/impact"
	"sproutchef/internal/platform/gemini"
	"sproutchef/internal/platform/localllm"
	"sproutchef/internal/recipe"
	"sproutchef/internal/user"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to load config.json: %w", err))
	}

	backend, err := docstore.NewBackend(cfg.StoreBackend, cfg.DataDir, cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("error creating %s backend: %w", cfg.StoreBackend, err))
	}
	db := docstore.Open(backend)

	users := user.NewStore(db)
	defaultUser, err := users.EnsureDefault(ctx, cfg.DefaultUserID, cfg.DefaultUserName)
	if err != nil {
		panic(fmt.Errorf("error resolving default user: %w", err))
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		panic(fmt.Errorf("error creating gemini client: %w", err))
	}
	defer geminiClient.Close()

	var generator api.Generator = geminiClient
	if cfg.LLMProvider == "local" {
		generator = localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel)
	}
	log.Printf("Using %s for text generation, storing data in %s", cfg.LLMProvider, cfg.StoreBackend)

	if err := api.RegisterValidators(); err != nil {
		panic(fmt.Errorf("error registering validators: %w", err))
	}

	handler := api.NewHandler(api.Options{
		Generator:     generator,
		Recognizer:    geminiClient,
		Users:         users,
		Impacts:       impact.NewStore(db, cfg.Location()),
		Recipes:       recipe.NewStore(db),
		Groceries:     grocery.NewStore(db),
		DefaultUserID: defaultUser.ID,
		ImagesDir:     cfg.ImagesDir,
	})

	r := newRouter(cfg, handler)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// newRouter builds the engine with middleware and routes.
func newRouter(cfg config.Config, handler *api.Handler) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(api.RequestID())

	limiter := api.NewRateLimiter(cfg.LLMRatePerSecond, cfg.LLMBurst)
	handler.Register(r, limiter.Limit())
	r.Static("/images", cfg.ImagesDir)
	return r
}
