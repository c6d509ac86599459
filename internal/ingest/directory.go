package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

// Intaker registers one photo for an owner; *inventory.Service satisfies it.
type Intaker interface {
	Intake(ctx context.Context, ownerID uuid.UUID, req inventory.IntakeRequest) (*inventory.IntakeResult, error)
}

type FileResult struct {
	Path        string
	Ingredients int
	Err         string
}

type DirStats struct {
	Scanned     uint32
	Matched     uint32
	Succeeded   uint32
	Failed      uint32
	Ingredients uint32
}

// Importer feeds every photo in a directory through intake.
type Importer struct {
	intake Intaker
	logger *slog.Logger
	prompt string
}

func NewImporter(intake Intaker, prompt string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{intake: intake, prompt: prompt, logger: logger}
}

// ImportDirectory walks root, skips hidden entries if requested, and registers each
// allowed image for ownerID. A failing file is recorded and the walk continues.
func (im *Importer) ImportDirectory(ctx context.Context, ownerID uuid.UUID, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		req, err := LoadImage(path)
		if err == nil {
			req.Prompt = im.prompt
			var res *inventory.IntakeResult
			res, err = im.intake.Intake(ctx, ownerID, req)
			if err == nil {
				results = append(results, FileResult{Path: path, Ingredients: len(res.Ingredients)})
				stats.Succeeded++
				stats.Ingredients += uint32(len(res.Ingredients))
				return nil
			}
		}
		im.logger.Error("import.file.failed", "path", path, "error", err)
		results = append(results, FileResult{Path: path, Err: err.Error()})
		stats.Failed++
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	im.logger.Info("import.dir.done", "root", root, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed, "ingredients", stats.Ingredients)
	return results, stats, nil
}
