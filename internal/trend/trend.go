// Package trend turns sparse daily usage counts into a dense 30-day series.
package trend

import (
	"time"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

// Days is the length of every filled series.
const Days = 30

// LabelLayout renders a day as zero-padded "MM/DD".
const LabelLayout = "01/02"

// Label formats t for matching against usage rows.
func Label(t time.Time) string {
	return t.Format(LabelLayout)
}

// Fill returns exactly Days points, oldest first, ending at today in today's location.
// Each point takes the count of the first raw row whose label matches; days with no
// row are zero. Rows outside the window are ignored.
func Fill(raw []entity.UsageTrendPoint, today time.Time) []entity.UsageTrendPoint {
	counts := make(map[string]int, len(raw))
	for _, p := range raw {
		if _, seen := counts[p.Date]; !seen {
			counts[p.Date] = p.UsageCount
		}
	}

	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	out := make([]entity.UsageTrendPoint, 0, Days)
	for i := Days - 1; i >= 0; i-- {
		label := Label(midnight.AddDate(0, 0, -i))
		out = append(out, entity.UsageTrendPoint{Date: label, UsageCount: counts[label]})
	}
	return out
}

// Bucket groups usage timestamps into per-day counts, labeled in loc, in first-seen order.
func Bucket(usedAt []time.Time, loc *time.Location) []entity.UsageTrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	index := map[string]int{}
	var out []entity.UsageTrendPoint
	for _, t := range usedAt {
		label := Label(t.In(loc))
		if i, ok := index[label]; ok {
			out[i].UsageCount++
			continue
		}
		index[label] = len(out)
		out = append(out, entity.UsageTrendPoint{Date: label, UsageCount: 1})
	}
	return out
}

// WindowStart is the first instant covered by the series ending today.
func WindowStart(today time.Time) time.Time {
	y, m, d := today.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, today.Location()).AddDate(0, 0, -(Days - 1))
}
