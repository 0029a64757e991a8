package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/Sasakiai/poker-chip-distribution/internal/api"
	"github.com/Sasakiai/poker-chip-distribution/internal/cache"
	"github.com/Sasakiai/poker-chip-distribution/internal/config"
	"github.com/Sasakiai/poker-chip-distribution/internal/distribution"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/metrics"
	"github.com/Sasakiai/poker-chip-distribution/internal/store"
)

// requestTimeout cancels a request's context. It stays below writeTimeout
// so the timeout response can still be written.
const (
	requestTimeout = 8 * time.Second
	writeTimeout   = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger(os.Stdout))

	engine, err := distribution.New(cfg.Denominations, cfg.Scoring)
	if err != nil {
		slog.Error("engine init failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store and cache ---
	st := store.NewMemoryStore(cfg.Inventory)
	metrics.InventoryValue.Set(float64(inventory.TotalValue(cfg.Inventory)))

	resultCache, closeCache, err := newCache(cfg)
	if err != nil {
		slog.Error("cache init failed", "err", err)
		os.Exit(1)
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run(ctx)

	svc := api.NewService(engine, st, resultCache, wsHub)

	// --- Server ---
	srv := newServer(cfg, newRouter(cfg, svc))

	go func() {
		slog.Info("chipdist listening", "addr", cfg.ListenAddress, "denominations", cfg.Denominations)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down chipdist...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("chipdist stopped")
}

// newCache picks Redis when a URL is configured and the in-process LRU
// otherwise. The returned func releases the backend.
func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("using in-process result cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
		return cache.NewLRU(cfg.CacheSize, cfg.CacheTTL), func() {}, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	slog.Info("Redis result cache enabled", "addr", opt.Addr, "ttl", cfg.CacheTTL)
	return cache.NewRedis(rdb, cfg.CacheTTL), func() { rdb.Close() }, nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

func newRouter(cfg *config.Config, svc *api.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, api.Version)
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	svc.RegisterRoutes(r)
	return r
}
