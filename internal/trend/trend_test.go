package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

func TestFillProducesDenseThirtyDays(t *testing.T) {
	today := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)
	raw := []entity.UsageTrendPoint{{Date: "06/01", UsageCount: 3}}

	got := Fill(raw, today)
	require.Len(t, got, Days)
	assert.Equal(t, "06/01", got[0].Date)
	assert.Equal(t, 3, got[0].UsageCount)
	assert.Equal(t, "06/30", got[29].Date)
	for _, p := range got[1:] {
		assert.Equal(t, 0, p.UsageCount, p.Date)
	}
}

func TestFillEmptyInput(t *testing.T) {
	got := Fill(nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.Len(t, got, Days)
	assert.Equal(t, "02/09", got[0].Date)
	assert.Equal(t, "03/10", got[29].Date)
}

func TestFillFirstMatchWinsAndIgnoresOutsideWindow(t *testing.T) {
	today := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	raw := []entity.UsageTrendPoint{
		{Date: "01/04", UsageCount: 2},
		{Date: "01/04", UsageCount: 9},
		{Date: "11/01", UsageCount: 7},
	}
	got := Fill(raw, today)
	assert.Equal(t, "12/07", got[0].Date)
	assert.Equal(t, entity.UsageTrendPoint{Date: "01/04", UsageCount: 2}, got[28])
	total := 0
	for _, p := range got {
		total += p.UsageCount
	}
	assert.Equal(t, 2, total)
}

func TestFillUsesTodaysLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	today := time.Date(2025, 6, 1, 1, 0, 0, 0, tokyo) // still 05/31 in UTC
	got := Fill(nil, today)
	assert.Equal(t, "06/01", got[29].Date)
}

func TestBucket(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	used := []time.Time{
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), // 06/02 in Tokyo
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	got := Bucket(used, tokyo)
	assert.Equal(t, []entity.UsageTrendPoint{
		{Date: "06/01", UsageCount: 2},
		{Date: "06/02", UsageCount: 1},
	}, got)
	assert.Empty(t, Bucket(nil, nil))
}

func TestWindowStart(t *testing.T) {
	today := time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), WindowStart(today))
}
