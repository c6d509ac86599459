package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
)

const (
	SheetIngredients = "Ingredients"
	SheetUsage       = "Usage"
)

// TrendSource yields the filled usage series; *dashboard.Service satisfies it.
type TrendSource interface {
	Trends(ctx context.Context, ownerID uuid.UUID) ([]entity.UsageTrendPoint, error)
}

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	ingredients repository.IngredientRepository
	trends      TrendSource
	logger      *slog.Logger
}

func NewService(ingredients repository.IngredientRepository, trends TrendSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ingredients: ingredients, trends: trends, logger: logger}
}

// ExportInventoryXLSX returns a workbook (as bytes) with every ingredient of the owner
// and the last 30 days of usage.
func (s *Service) ExportInventoryXLSX(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	start := time.Now()

	items, err := s.ingredients.ListByOwner(ctx, ownerID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	points, err := s.trends.Trends(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the ingredient list
	if err := f.SetSheetName(f.GetSheetName(0), SheetIngredients); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetUsage); err != nil {
		return nil, err
	}

	writeRow(f, SheetIngredients, 1, "Name", "Quantity", "Unit", "Category", "Expiration Date", "Status", "Used At", "Notes")
	for i, it := range items {
		usedAt := ""
		if it.UsedAt != nil {
			usedAt = it.UsedAt.Format(time.DateOnly)
		}
		notes := ""
		if it.Notes != nil {
			notes = truncate(*it.Notes, 140)
		}
		writeRow(f, SheetIngredients, i+2,
			it.Name, it.Quantity, string(it.Unit), string(it.Category),
			it.ExpirationDate.Format(time.DateOnly), string(it.Status), usedAt, notes,
		)
	}

	writeRow(f, SheetUsage, 1, "Date", "Usage Count")
	for i, p := range points {
		writeRow(f, SheetUsage, i+2, p.Date, p.UsageCount)
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetIngredients, "A", "A", 24) // name
	_ = f.SetColWidth(SheetIngredients, "B", "D", 12)
	_ = f.SetColWidth(SheetIngredients, "E", "G", 16) // dates
	_ = f.SetColWidth(SheetIngredients, "H", "H", 48) // notes
	_ = f.SetColWidth(SheetUsage, "A", "B", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", ownerID.String(),
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
