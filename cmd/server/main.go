// Command server is the cardtable-arena session server: it loads the card
// catalogue, wires the lobby/game/connection actor fabric, and serves the
// /ws upgrade route alongside health and metrics endpoints.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/catalog"
	"github.com/cardtable/arena/internal/v1/config"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/health"
	"github.com/cardtable/arena/internal/v1/lobby"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/middleware"
	"github.com/cardtable/arena/internal/v1/ratelimit"
	"github.com/cardtable/arena/internal/v1/registry"
	"github.com/cardtable/arena/internal/v1/tracing"
	"github.com/cardtable/arena/internal/v1/transport"
)

// gameCleanupGrace is how long shutdown sleeps after the HTTP server stops
// accepting new connections before it cancels the actors' context. It is a
// fixed sleep; shutdown does not wait on any individual GameActor.
const gameCleanupGrace = 2 * time.Second

func main() {
	loadDotEnv()

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("environment validation failed", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	logger := logging.GetLogger()
	defer logger.Sync()

	ctx := context.Background()

	if cfg.TracingCollectorAddr != "" {
		tp, err := tracing.InitTracer(ctx, "cardtable-arena", cfg.TracingCollectorAddr)
		if err != nil {
			logging.Error(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logging.Error(ctx, "tracer provider shutdown failed", zap.Error(err))
				}
			}()
		}
	}

	cat, err := catalog.Load(catalog.NewFileSource(cfg.CatalogPath))
	if err != nil {
		logging.Fatal(ctx, "failed to load card catalogue", zap.Error(err))
	}
	logging.Info(ctx, "card catalogue loaded", zap.Int("templates", cat.Size()))

	outbox := make(chan delivery.Command, 256)
	manager := delivery.NewConnectionManager()
	commandLoop := delivery.NewCommandLoop(manager, outbox)

	lobbyActor := lobby.NewActor(nil, cat, outbox, cfg.FastStart)
	reg := registry.New(lobbyActor.Inbox())
	lobbyActor.SetRegistry(reg)

	server, err := transport.NewServer(reg, outbox, allowedOrigins(cfg.AllowedOrigins), cfg.RateLimitWsConnect, cfg.RateLimitWsMessage)
	if err != nil {
		logging.Fatal(ctx, "failed to construct transport server", zap.Error(err))
	}

	actorCtx, cancelActors := context.WithCancel(context.Background())
	defer cancelActors()

	go commandLoop.Run(actorCtx)
	go lobbyActor.Run(actorCtx)

	healthHandler := health.NewHandler(cat)

	httpLimiter, err := ratelimit.NewHTTPLimiter("60-M")
	if err != nil {
		logging.Fatal(ctx, "failed to construct http rate limiter", zap.Error(err))
	}

	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg.AllowedOrigins)
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", httpLimiter.Middleware("healthz"), healthHandler.Liveness)
	router.GET("/readyz", httpLimiter.Middleware("readyz"), healthHandler.Readiness)
	router.GET("/metrics", httpLimiter.Middleware("metrics"), gin.WrapH(promhttp.Handler()))
	router.GET("/ws", server.ServeWS)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "session server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal(ctx, "server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	time.Sleep(gameCleanupGrace)
	cancelActors()

	logging.Info(ctx, "server exiting")
}

// loadDotEnv mirrors the teacher's multi-path .env lookup so the binary
// behaves the same whether it's run from the repo root or from cmd/server.
func loadDotEnv() {
	envPaths := []string{".env", "../../.env", "../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("loaded environment from", "path", path)
			return
		}
	}
	slog.Warn("no .env file found in any expected location, relying on environment variables")
}

// allowedOrigins splits the comma-separated ALLOWED_ORIGINS value, falling
// back to a permissive localhost default for local development.
func allowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"http://localhost:3000"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
