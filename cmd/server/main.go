package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pathwise.app/audit/common/arangodb"
	"pathwise.app/audit/common/id"
	"pathwise.app/audit/common/logger"
	"pathwise.app/audit/common/otel"
	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/core/config"
	"pathwise.app/audit/core/db"
	"pathwise.app/audit/internal/catalog"
	"pathwise.app/audit/internal/http/middleware"
	httprouter "pathwise.app/audit/internal/http/router"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/service"
	"pathwise.app/audit/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet; OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "audit server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	taskProducer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer taskProducer.Close()

	stores := store.NewStores(database.Pool())

	var graph arangodb.Client
	if cfg.ArangoDB.Enabled() {
		graph, err = arangodb.New(ctx, arangodb.Config{
			URL:      cfg.ArangoDB.URL,
			Username: cfg.ArangoDB.Username,
			Password: cfg.ArangoDB.Password,
			Database: cfg.ArangoDB.Database,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to arangodb", "error", err)
			os.Exit(1)
		}
		defer graph.Close()

		if err := ensureGraph(ctx, graph); err != nil {
			slog.ErrorContext(ctx, "failed to prepare prerequisite graph", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "arangodb connected", "database", cfg.ArangoDB.Database)
	} else {
		slog.InfoContext(ctx, "arangodb disabled (prerequisite chains served from postgres)")
	}

	var search typesense.Client
	if cfg.Typesense.Enabled() {
		search, err = typesense.New(typesense.Config{
			URL:    cfg.Typesense.URL,
			APIKey: cfg.Typesense.APIKey,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to configure typesense", "error", err)
			os.Exit(1)
		}
		if err := search.EnsureCollection(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to prepare course search collection", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "typesense connected")
	} else {
		slog.InfoContext(ctx, "typesense disabled (course search unavailable)")
	}

	facts := catalog.NewFactsProvider(stores.Courses(), stores.GECategories(), graph)

	services := service.NewServices(
		stores,
		service.NewTxRunner(database),
		taskProducer,
		facts,
		search,
		cfg.WorkOS,
		cfg.Rules,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		DashboardURL: cfg.DashboardURL,
		IsProduction: cfg.IsProduction(),
		AdminAPIKey:  cfg.AdminAPIKey,
	})

	return router
}

func ensureGraph(ctx context.Context, graph arangodb.Client) error {
	if err := graph.EnsureDatabase(ctx); err != nil {
		return err
	}
	if err := graph.EnsureCollections(ctx); err != nil {
		return err
	}
	return graph.EnsureGraph(ctx)
}

const banner = `
██████╗  █████╗ ████████╗██╗  ██╗██╗    ██╗██╗███████╗███████╗    ███████╗███████╗██████╗ ██╗   ██╗███████╗██████╗
██╔══██╗██╔══██╗╚══██╔══╝██║  ██║██║    ██║██║██╔════╝██╔════╝    ██╔════╝██╔════╝██╔══██╗██║   ██║██╔════╝██╔══██╗
██████╔╝███████║   ██║   ███████║██║ █╗ ██║██║███████╗█████╗      ███████╗█████╗  ██████╔╝██║   ██║█████╗  ██████╔╝
██╔═══╝ ██╔══██║   ██║   ██╔══██║██║███╗██║██║╚════██║██╔══╝      ╚════██║██╔══╝  ██╔══██╗╚██╗ ██╔╝██╔══╝  ██╔══██╗
██║     ██║  ██║   ██║   ██║  ██║╚███╔███╔╝██║███████║███████╗    ███████║███████╗██║  ██║ ╚████╔╝ ███████╗██║  ██║
╚═╝     ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚══╝╚══╝ ╚═╝╚══════╝╚══════╝    ╚══════╝╚══════╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚═╝  ╚═╝
`
