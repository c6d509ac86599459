package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lpernett/godotenv"

	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
	"github.com/joseph-ayodele/pantry-tracker/internal/ingest"
)

// extract runs the extraction pipeline against a local photo a number of times and
// prints each result, which is handy for checking prompt and schema changes.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		logger.Error("usage: extract <image> [times] [prompt]")
		os.Exit(2)
	}
	times := 1
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}
	prompt := ""
	if len(os.Args) >= 4 {
		prompt = os.Args[3]
	}

	img, err := ingest.LoadImage(os.Args[1])
	if err != nil {
		logger.Error("load image", "path", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	transport, err := agent.NewBedrockTransport(agent.BedrockConfig{
		AgentID: cfg.Agent.AgentID,
		AliasID: cfg.Agent.AliasID,
		Region:  cfg.Agent.Region,
	})
	if err != nil {
		logger.Error("bedrock transport", "error", err)
		os.Exit(1)
	}
	converter, err := extract.NewConverter(cfg.Agent.AttachmentFormat)
	if err != nil {
		logger.Error("converter", "error", err)
		os.Exit(2)
	}
	svc := extract.NewService(
		agent.NewClient(transport, agent.Config{Timeout: cfg.Agent.Timeout}, logger),
		extract.Config{MaxAttempts: cfg.Extraction.MaxAttempts, BaseDelay: cfg.Extraction.BaseDelay},
		logger,
		extract.WithConverter(converter),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failures := 0
	for i := 1; i <= times; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		start := time.Now()
		items, err := svc.ExtractIngredients(ctx, extract.Request{
			Prompt: prompt,
			Image:  extract.Image{Name: img.Filename, MediaType: img.MediaType, Data: img.Data},
		})
		cancel()
		if err != nil {
			failures++
			logger.Error("run failed", "run", i, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			continue
		}
		logger.Info("run ok", "run", i, "count", len(items), "elapsed_ms", time.Since(start).Milliseconds())
		_ = enc.Encode(items)
	}
	if failures > 0 {
		logger.Warn("some runs failed", "failures", failures, "runs", times)
		os.Exit(1)
	}
}
