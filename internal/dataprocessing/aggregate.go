package dataprocessing

import (
	"fmt"
	"math"
	"sort"
)

// hourRange is a half-open [Min, Max) range of hours used by the fixed-bucket
// aggregators.
type hourRange struct {
	Label string
	Min   float64
	Max   float64
}

// cadenceRanges classify the gap to the previous post. Ranges are exhaustive
// and ordered; a gap matching none falls back to the last bucket.
var cadenceRanges = []hourRange{
	{Label: "0-6h", Min: 0, Max: 6},
	{Label: "6-12h", Min: 6, Max: 12},
	{Label: "12-24h", Min: 12, Max: 24},
	{Label: "24-48h", Min: 24, Max: 48},
	{Label: "48h+", Min: 48, Max: math.Inf(1)},
}

// timeOfDaySegments partition the 24-hour clock. A record matching none falls
// back to the first segment.
var timeOfDaySegments = []hourRange{
	{Label: "night", Min: 0, Max: 6},
	{Label: "morning", Min: 6, Max: 10},
	{Label: "day", Min: 10, Max: 17},
	{Label: "evening", Min: 17, Max: 22},
	{Label: "late", Min: 22, Max: 24},
}

// ComputeKPISummary returns the four headline scalars. An empty input yields
// all zeros.
func ComputeKPISummary(records []PostRecord) KPISummary {
	if len(records) == 0 {
		return KPISummary{}
	}
	var views, reactions, er float64
	for _, r := range records {
		views += r.Views
		reactions += r.Reactions
		er += r.EngagementRate
	}
	n := float64(len(records))
	return KPISummary{
		TotalPosts:        len(records),
		AvgViews:          views / n,
		AvgReactions:      reactions / n,
		AvgEngagementRate: er / n,
	}
}

// ComputeTimeSeries projects one point per record in input order. Records
// sharing a calendar date produce separate points.
func ComputeTimeSeries(records []PostRecord) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, len(records))
	for _, r := range records {
		points = append(points, TimeSeriesPoint{
			DateLabel:             fmt.Sprintf("%02d.%02d", r.Timestamp.Day(), int(r.Timestamp.Month())),
			Views:                 r.Views,
			Reactions:             r.Reactions,
			EngagementRatePercent: r.EngagementRate * 100,
		})
	}
	return points
}

// ComputeWeekdayViews returns mean views per weekday, ascending by weekday
// index. Weekdays with no records are omitted.
func ComputeWeekdayViews(records []PostRecord) []WeekdayViews {
	var sums, counts [7]float64
	for _, r := range records {
		sums[r.WeekdayIndex] += r.Views
		counts[r.WeekdayIndex]++
	}
	out := make([]WeekdayViews, 0, 7)
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			continue
		}
		out = append(out, WeekdayViews{
			WeekdayIndex: i,
			WeekdayLabel: WeekdayLabels[i],
			AvgViews:     sums[i] / counts[i],
		})
	}
	return out
}

// ComputeWeekdayEngagement is the engagement-rate twin of ComputeWeekdayViews,
// reporting the mean rate as a percentage.
func ComputeWeekdayEngagement(records []PostRecord) []WeekdayEngagement {
	var sums, counts [7]float64
	for _, r := range records {
		sums[r.WeekdayIndex] += r.EngagementRate * 100
		counts[r.WeekdayIndex]++
	}
	out := make([]WeekdayEngagement, 0, 7)
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			continue
		}
		out = append(out, WeekdayEngagement{
			WeekdayIndex:             i,
			WeekdayLabel:             WeekdayLabels[i],
			AvgEngagementRatePercent: sums[i] / counts[i],
		})
	}
	return out
}

// ComputeCadenceBuckets groups each post (from the second onward) by the time
// elapsed since the previous post, attributing the current post's metrics to
// the bucket. Fewer than two records yield an empty result; otherwise all
// five buckets are returned in fixed order, zero-filled where empty. The
// input slice is re-sorted on a copy and never mutated.
func ComputeCadenceBuckets(records []PostRecord) []CadenceBucket {
	if len(records) < 2 {
		return []CadenceBucket{}
	}
	ordered := make([]PostRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	type acc struct {
		posts int
		views float64
		er    float64
	}
	accs := make([]acc, len(cadenceRanges))
	for i := 1; i < len(ordered); i++ {
		gapHours := ordered[i].Timestamp.Sub(ordered[i-1].Timestamp).Hours()
		idx := len(cadenceRanges) - 1
		for j, rng := range cadenceRanges {
			if gapHours >= rng.Min && gapHours < rng.Max {
				idx = j
				break
			}
		}
		accs[idx].posts++
		accs[idx].views += ordered[i].Views
		accs[idx].er += ordered[i].EngagementRate * 100
	}

	out := make([]CadenceBucket, len(cadenceRanges))
	for i, rng := range cadenceRanges {
		b := CadenceBucket{Label: rng.Label, Posts: accs[i].posts}
		if accs[i].posts > 0 {
			n := float64(accs[i].posts)
			b.AvgViews = accs[i].views / n
			b.AvgEngagementRatePercent = accs[i].er / n
		}
		out[i] = b
	}
	return out
}

// ComputeTimeOfDay groups records into the five fixed hour-of-day segments.
// An empty input yields an empty result; otherwise all five segments are
// returned in fixed order, zero-filled where empty.
func ComputeTimeOfDay(records []PostRecord) []TimeOfDayBucket {
	if len(records) == 0 {
		return []TimeOfDayBucket{}
	}
	type acc struct {
		posts int
		views float64
		er    float64
	}
	accs := make([]acc, len(timeOfDaySegments))
	for _, r := range records {
		idx := 0
		for j, seg := range timeOfDaySegments {
			if float64(r.Hour) >= seg.Min && float64(r.Hour) < seg.Max {
				idx = j
				break
			}
		}
		accs[idx].posts++
		accs[idx].views += r.Views
		accs[idx].er += r.EngagementRate * 100
	}

	out := make([]TimeOfDayBucket, len(timeOfDaySegments))
	for i, seg := range timeOfDaySegments {
		b := TimeOfDayBucket{Label: seg.Label, Posts: accs[i].posts}
		if accs[i].posts > 0 {
			n := float64(accs[i].posts)
			b.AvgViews = accs[i].views / n
			b.AvgEngagementRatePercent = accs[i].er / n
		}
		out[i] = b
	}
	return out
}

// ComputePostTypeStats groups records by exact post type and sorts the result
// descending by mean views. Types absent from the input are omitted.
func ComputePostTypeStats(records []PostRecord) []PostTypeStats {
	type acc struct {
		posts int
		views float64
		er    float64
	}
	accs := make(map[string]*acc)
	order := make([]string, 0, 8)
	for _, r := range records {
		a, ok := accs[r.PostType]
		if !ok {
			a = &acc{}
			accs[r.PostType] = a
			order = append(order, r.PostType)
		}
		a.posts++
		a.views += r.Views
		a.er += r.EngagementRate * 100
	}

	out := make([]PostTypeStats, 0, len(order))
	for _, t := range order {
		a := accs[t]
		n := float64(a.posts)
		out = append(out, PostTypeStats{
			PostType:                 t,
			Posts:                    a.posts,
			AvgViews:                 a.views / n,
			AvgEngagementRatePercent: a.er / n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgViews > out[j].AvgViews
	})
	return out
}

// ComputeHeatmap groups records by (weekday, hour) and reports mean views per
// populated cell, sorted by weekday then hour. MaxAvgViews is the largest
// cell mean, or 1 when there are no cells.
func ComputeHeatmap(records []PostRecord) Heatmap {
	type acc struct {
		posts int
		views float64
	}
	accs := make(map[int]*acc)
	for _, r := range records {
		key := r.WeekdayIndex*24 + r.Hour
		a, ok := accs[key]
		if !ok {
			a = &acc{}
			accs[key] = a
		}
		a.posts++
		a.views += r.Views
	}

	cells := make([]HeatmapCell, 0, len(accs))
	maxAvg := 0.0
	for key, a := range accs {
		avg := a.views / float64(a.posts)
		cells = append(cells, HeatmapCell{
			WeekdayIndex: key / 24,
			Hour:         key % 24,
			Posts:        a.posts,
			AvgViews:     avg,
		})
		if avg > maxAvg {
			maxAvg = avg
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].WeekdayIndex != cells[j].WeekdayIndex {
			return cells[i].WeekdayIndex < cells[j].WeekdayIndex
		}
		return cells[i].Hour < cells[j].Hour
	})
	if len(cells) == 0 {
		maxAvg = 1
	}
	return Heatmap{Cells: cells, MaxAvgViews: maxAvg}
}
