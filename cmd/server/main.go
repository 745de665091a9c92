package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/abndnt/paris-night-sub001/internal/adapters"
	"github.com/abndnt/paris-night-sub001/internal/cache"
	"github.com/abndnt/paris-night-sub001/internal/handler"
	"github.com/abndnt/paris-night-sub001/internal/orchestrator"
	"github.com/abndnt/paris-night-sub001/internal/ratelimit"
	"github.com/abndnt/paris-night-sub001/internal/websocket"
)

type Config struct {
	Port                  string
	CacheEnabled          bool
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	CacheTTL              time.Duration
	SourceTimeout         time.Duration
	MaxConcurrentSearches int64
	SearchRetention       time.Duration
	MaxRetries            int
	RetryInitialDelay     time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := loadConfig()

	flightCache, limiterStore := initializeBackends(cfg)
	defer flightCache.Close()

	limiter := ratelimit.NewLimiter(limiterStore, ratelimit.DefaultBudget())
	limiter.SetSourceBudget("meridian", ratelimit.Budget{PerMinute: 30, PerHour: 500})
	limiter.SetSourceBudget("pacifica", ratelimit.Budget{PerMinute: 20, PerHour: 400})

	registry, err := initializeSources(limiter, flightCache, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize sources: %v", err)
	}
	log.Printf("Registered flight sources: %v", registry.Names())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	orch := orchestrator.New(registry, flightCache, orchestrator.Config{
		MaxConcurrentSearches: cfg.MaxConcurrentSearches,
		SourceTimeout:         cfg.SourceTimeout,
		Retention:             cfg.SearchRetention,
	}, hub)
	go orch.Progress().Run(ctx)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	searchHandler := handler.NewSearchHandler(orch)
	wsHandler := handler.NewWSHandler(hub)

	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)
	api.GET("/flights/search/:id/progress", searchHandler.Progress)
	api.POST("/flights/search/:id/cancel", searchHandler.Cancel)
	api.POST("/flights/search/:id/filter", searchHandler.Filter)
	api.GET("/flights/search/:id/results", searchHandler.Sort)
	api.GET("/flights/stats", searchHandler.Stats)

	e.GET("/health", searchHandler.Health)
	e.GET("/ws/search/:id", wsHandler.Progress)

	log.Printf("Starting flight search orchestrator on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initializeBackends connects Redis for both the cache and the limiter's
// counters, falling back to in-memory backends so the engine stays up when
// Redis is unreachable.
func initializeBackends(cfg Config) (cache.Cache, ratelimit.Store) {
	if !cfg.CacheEnabled {
		log.Println("Cache disabled, using in-memory backends")
		return cache.NewMemoryCache(), ratelimit.NewMemoryStore()
	}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("Redis unreachable (%v), falling back to in-memory backends", err)
		return cache.NewMemoryCache(), ratelimit.NewMemoryStore()
	}

	log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	return redisCache, ratelimit.NewRedisStore(redisCache.Client())
}

func initializeSources(limiter *ratelimit.Limiter, c cache.Cache, cfg Config) (*adapters.Registry, error) {
	sourceCfg := adapters.DefaultSourceConfig()
	sourceCfg.CacheTTL = cfg.CacheTTL
	sourceCfg.Retry.MaxRetries = cfg.MaxRetries
	sourceCfg.Retry.InitialDelay = cfg.RetryInitialDelay

	registry := adapters.NewRegistry()

	meridian, err := adapters.NewMeridianAdapter()
	if err != nil {
		return nil, err
	}
	registry.Register(adapters.NewSource(meridian, limiter, c, sourceCfg))

	pacifica, err := adapters.NewPacificaAdapter()
	if err != nil {
		return nil, err
	}
	registry.Register(adapters.NewSource(pacifica, limiter, c, sourceCfg))

	return registry, nil
}

func loadConfig() Config {
	return Config{
		Port:                  getEnv("PORT", "8080"),
		CacheEnabled:          getEnvBool("CACHE_ENABLED", true),
		RedisHost:             getEnv("REDIS_HOST", "localhost"),
		RedisPort:             getEnv("REDIS_PORT", "6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		CacheTTL:              getEnvDuration("CACHE_TTL", 5*time.Minute),
		SourceTimeout:         getEnvDuration("SOURCE_TIMEOUT", 30*time.Second),
		MaxConcurrentSearches: int64(getEnvInt("MAX_CONCURRENT_SEARCHES", 10)),
		SearchRetention:       getEnvDuration("SEARCH_RETENTION", 5*time.Minute),
		MaxRetries:            getEnvInt("MAX_RETRIES", 2),
		RetryInitialDelay:     getEnvDuration("RETRY_INITIAL_DELAY", 500*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
