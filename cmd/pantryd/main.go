package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lpernett/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/async"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/export"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
	"github.com/joseph-ayodele/pantry-tracker/internal/recipes"
	repo "github.com/joseph-ayodele/pantry-tracker/internal/repository"
	"github.com/joseph-ayodele/pantry-tracker/internal/server"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/dashboard"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
	"github.com/joseph-ayodele/pantry-tracker/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not read .env", "error", err)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := repo.EnsureSchema(ctx, db); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		logger.Info("schema ensured", "dialect", db.Dialect())
	}

	ingredientsRepo := repo.NewIngredientRepository(db, logger)
	recipesRepo := repo.NewRecipeRepository(db, logger)

	// Agent
	transport, err := agent.NewBedrockTransport(agent.BedrockConfig{
		AgentID: cfg.Agent.AgentID,
		AliasID: cfg.Agent.AliasID,
		Region:  cfg.Agent.Region,
	})
	if err != nil {
		logger.Error("failed to create bedrock transport", "error", err)
		os.Exit(1)
	}
	agentClient := agent.NewClient(transport, agent.Config{Timeout: cfg.Agent.Timeout}, logger)

	converter, err := extract.NewConverter(cfg.Agent.AttachmentFormat)
	if err != nil {
		logger.Error("invalid attachment format", "error", err)
		os.Exit(2)
	}
	extractor := extract.NewService(agentClient, extract.Config{
		MaxAttempts: cfg.Extraction.MaxAttempts,
		BaseDelay:   cfg.Extraction.BaseDelay,
	}, logger, extract.WithConverter(converter))

	// Optional photo archive
	var archive inventory.Archiver
	if cfg.Storage.Endpoint != "" {
		a, err := storage.NewArchive(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		}, logger)
		if err != nil {
			logger.Error("failed to connect image archive", "error", err, "endpoint", cfg.Storage.Endpoint)
			os.Exit(1)
		}
		archive = a
	}

	queue := async.NewQueue(logger,
		async.WithWorkers(cfg.Recipes.Workers),
		async.WithQueueSize(cfg.Recipes.QueueSize),
		async.WithTaskTimeout(cfg.Recipes.Timeout),
	)

	inventorySvc := inventory.NewService(extractor, ingredientsRepo, archive, logger)
	recipeSvc := recipes.NewService(recipesRepo, ingredientsRepo, agentClient, queue, logger)
	dashboardSvc := dashboard.NewService(ingredientsRepo, recipesRepo, logger)
	exportSvc := export.NewService(ingredientsRepo, dashboardSvc, logger)

	router := server.NewRouter(server.Deps{
		Ingredients: inventorySvc,
		Recipes:     recipeSvc,
		Dashboard:   dashboardSvc,
		Export:      exportSvc,
		Ping: func(ctx context.Context) error {
			return repo.HealthCheck(ctx, db, 2*time.Second, logger)
		},
	}, logger)
	httpServer := server.NewHTTPServer(cfg.Server.HTTPAddr, router)

	// gRPC health for orchestrators
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("pantryd listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
