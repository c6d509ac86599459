package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lpernett/godotenv"

	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/export"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
	"github.com/joseph-ayodele/pantry-tracker/internal/ingest"
	repo "github.com/joseph-ayodele/pantry-tracker/internal/repository"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/dashboard"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of ingredient photos (required)")
		out      = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		dbPath   = flag.String("db", "", "SQLite database file (optional, defaults to pantry.db next to the output)")
		ownerStr = flag.String("owner", "", "owner UUID to register ingredients for (optional, random when empty)")
		prompt   = flag.String("prompt", "", "extra instructions for the model")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "pantry.xlsx")
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(filepath.Dir(*out), "pantry.db")
	}
	owner := uuid.New()
	if *ownerStr != "" {
		parsed, err := uuid.Parse(*ownerStr)
		if err != nil {
			printError("Error: --owner must be a UUID: %v\n", err)
			os.Exit(1)
		}
		owner = parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := common.LoadConfig()
	if cfg.Agent.AgentID == "" || cfg.Agent.AliasID == "" {
		printError("Error: BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID are required\n")
		os.Exit(2)
	}

	db, err := repo.OpenSQLite(ctx, *dbPath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer repo.Close(db, logger)
	if err := repo.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	ingredientsRepo := repo.NewIngredientRepository(db, logger)
	recipesRepo := repo.NewRecipeRepository(db, logger)

	transport, err := agent.NewBedrockTransport(agent.BedrockConfig{
		AgentID: cfg.Agent.AgentID,
		AliasID: cfg.Agent.AliasID,
		Region:  cfg.Agent.Region,
	})
	if err != nil {
		logger.Error("failed to create bedrock transport", "error", err)
		os.Exit(1)
	}
	converter, err := extract.NewConverter(cfg.Agent.AttachmentFormat)
	if err != nil {
		logger.Error("invalid attachment format", "error", err)
		os.Exit(2)
	}
	extractor := extract.NewService(
		agent.NewClient(transport, agent.Config{Timeout: cfg.Agent.Timeout}, logger),
		extract.Config{MaxAttempts: cfg.Extraction.MaxAttempts, BaseDelay: cfg.Extraction.BaseDelay},
		logger,
		extract.WithConverter(converter),
	)
	inventorySvc := inventory.NewService(extractor, ingredientsRepo, nil, logger)

	logger.Info("starting import", "dir", *dir, "owner", owner)
	results, stats, err := ingest.NewImporter(inventorySvc, *prompt, logger).ImportDirectory(ctx, owner, *dir, true)
	if err != nil {
		logger.Error("failed to import directory", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("photo skipped", "path", r.Path, "error", r.Err)
		}
	}

	logger.Info("exporting to XLSX", "output", *out)
	exportSvc := export.NewService(ingredientsRepo, dashboard.NewService(ingredientsRepo, recipesRepo, logger), logger)
	xlsxBytes, err := exportSvc.ExportInventoryXLSX(ctx, owner)
	if err != nil {
		logger.Error("failed to export inventory", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Import complete!\n")
	fmt.Printf("- Owner: %s\n", owner)
	fmt.Printf("- Photos matched: %d\n", stats.Matched)
	fmt.Printf("- Photos imported: %d\n", stats.Succeeded)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Ingredients: %d\n", stats.Ingredients)
	fmt.Printf("- Output: %s\n", *out)
}
