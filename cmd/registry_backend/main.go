package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/securities_registry/internal/adapters/rendering"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/core/services"
	"github.com/SscSPs/securities_registry/internal/handlers"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/SscSPs/securities_registry/internal/platform/config"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
	"github.com/SscSPs/securities_registry/internal/repositories/database/pgsql"
	"github.com/SscSPs/securities_registry/internal/repositories/memory"
	"github.com/SscSPs/securities_registry/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// @title Securities Registry API
// @version 1.0
// @description Ledger, holdings and certificate services for a securities registry.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// backend is everything main owns and must release on shutdown.
type backend struct {
	repos   portsrepo.RepositoryProvider
	pool    *pgxpool.Pool
	redis   *redis.Client
	locker  lock.Locker
	closers []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	b := &backend{}
	defer b.close()

	if err := openStore(ctx, cfg, logger, b); err != nil {
		return err
	}
	if err := openLocker(ctx, cfg, logger, b); err != nil {
		return err
	}

	renderer := rendering.NewHTTPRenderer(cfg.RendererURL, cfg.RenderTimeout, cfg.RenderMaxSessions, nil)
	container, err := services.NewServiceContainer(cfg, b.repos, services.Dependencies{
		Locker:   b.locker,
		Renderer: renderer,
		Cache:    rendering.NewCache(cfg.RenderCacheSize, cfg.RenderCacheTTL),
	})
	if err != nil {
		return fmt.Errorf("building services: %w", err)
	}

	opts, err := routeOptions(cfg, b)
	if err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigin,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Certificate-Id", "X-Certificate-Number", "X-Checksum-Sha256", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("setting trusted proxies: %w", err)
	}

	handlers.RegisterRoutes(r, cfg, container, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreBackend), slog.String("lock", cfg.LockBackend))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	// Document renders can take up to RenderTimeout, so give in-flight requests that long.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RenderTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// openStore connects the configured store backend and loads the seed file into it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backend) error {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("initializing database pool: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, func() { database.ClosePgxPool(pool, logger) })

		if cfg.MigrationsPath != "" {
			if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				return err
			}
		}
		if cfg.SeedFile != "" {
			seed, err := readSeedFile(cfg.SeedFile)
			if err != nil {
				return err
			}
			err = pgsql.NewRegistryRepository(pool).UpsertReferenceData(ctx, seed.Entities, seed.Members, seed.SecurityClasses, seed.Templates)
			if err != nil {
				return fmt.Errorf("loading seed %s: %w", cfg.SeedFile, err)
			}
			logger.Info("Reference data loaded", slog.String("file", cfg.SeedFile), slog.Int("entities", len(seed.Entities)))
		}
		b.repos = pgsql.NewRepositoryProvider(pool)

	default:
		store := memory.NewStore()
		if cfg.SeedFile != "" {
			seed, err := readSeedFile(cfg.SeedFile)
			if err != nil {
				return err
			}
			store.Put(seed)
			logger.Info("Reference data loaded", slog.String("file", cfg.SeedFile), slog.Int("entities", len(seed.Entities)))
		} else {
			logger.Warn("In-memory store started without SEED_FILE; every entity lookup will fail")
		}
		b.repos = memory.NewRepositoryProvider(store)
	}
	return nil
}

func readSeedFile(path string) (memory.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return memory.Seed{}, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return memory.ReadSeed(f)
}

// openLocker builds the lock used to serialise ledger appends and certificate numbering.
func openLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backend) error {
	switch cfg.LockBackend {
	case config.LockRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		b.closers = append(b.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Error("Error closing redis client", slog.String("error", err.Error()))
			}
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		b.redis = rdb
		b.locker = lock.NewRedisLocker(rdb, cfg.LockTTL)
	case config.LockPostgres:
		b.locker = lock.NewAdvisoryLocker(b.pool)
	default:
		if cfg.StoreBackend == config.StorePostgres {
			logger.Warn("Process-local locks with a shared database; run a single replica or set LOCK_BACKEND")
		}
		b.locker = lock.NewKeyedMutex()
	}
	return nil
}

func routeOptions(cfg *config.Config, b *backend) (handlers.RouteOptions, error) {
	opts := handlers.RouteOptions{HealthChecks: map[string]handlers.HealthCheck{}}

	if cfg.RateLimit != "" {
		l, err := middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			return opts, fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		opts.RateLimiter = l
	}
	if cfg.DocumentRate != "" {
		l, err := middleware.NewLimiter(cfg.DocumentRate)
		if err != nil {
			return opts, fmt.Errorf("invalid DOCUMENT_RATE_LIMIT: %w", err)
		}
		opts.DocumentLimiter = l
	}

	if b.pool != nil {
		pool := b.pool
		opts.HealthChecks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	if b.redis != nil {
		rdb := b.redis
		opts.HealthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return opts, nil
}
