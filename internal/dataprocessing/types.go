package dataprocessing

import "time"

// Cell is a single raw spreadsheet cell as produced by the readers: a string,
// a float64 (numeric cell, including date serials), a bool or a native
// time.Time value.
type Cell = any

// RawRow maps a column header to its cell value for one spreadsheet row.
// Columns that are empty in the source may be absent from the map entirely.
type RawRow map[string]Cell

// FilterAll is the sentinel selector value meaning "no restriction".
const FilterAll = "all"

// DefaultPostType is assigned to records whose post-type cell is absent or
// empty.
const DefaultPostType = "untyped"

// WeekdayLabels is the fixed weekday lookup, indexed 0=Sunday through
// 6=Saturday.
var WeekdayLabels = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// ColumnMap names the spreadsheet headers the normalizer reads from each row.
// Matching is exact and case-sensitive; the headers are part of the file
// contract with the user.
type ColumnMap struct {
	Date           string
	Time           string
	ViewsDaily     string
	ViewsTotal     string
	Reactions      string
	PostType       string
	EngagementRate string
}

// DefaultColumnMap returns the standard header names.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Date:           "Date",
		Time:           "Time",
		ViewsDaily:     "Views Today",
		ViewsTotal:     "Total Views",
		Reactions:      "Reactions",
		PostType:       "Post Type",
		EngagementRate: "ER %",
	}
}

// PostRecord is one normalized social-media post. Records are immutable once
// created; derived fields (MonthKey, WeekdayIndex, WeekdayLabel, Hour) are
// computed from the final merged timestamp at normalization time.
type PostRecord struct {
	ID             int       `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	MonthKey       string    `json:"month_key"`
	WeekdayIndex   int       `json:"weekday_index"`
	WeekdayLabel   string    `json:"weekday_label"`
	Hour           int       `json:"hour"`
	Views          float64   `json:"views"`
	Reactions      float64   `json:"reactions"`
	EngagementRate float64   `json:"engagement_rate"`
	PostType       string    `json:"post_type"`
}

// KPISummary holds the four headline scalars for the filtered set.
// AvgEngagementRate is a fraction; presentation multiplies by 100.
type KPISummary struct {
	TotalPosts        int     `json:"total_posts"`
	AvgViews          float64 `json:"avg_views"`
	AvgReactions      float64 `json:"avg_reactions"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
}

// TimeSeriesPoint is one chart point per filtered record, in filtered order.
type TimeSeriesPoint struct {
	DateLabel             string  `json:"date_label"`
	Views                 float64 `json:"views"`
	Reactions             float64 `json:"reactions"`
	EngagementRatePercent float64 `json:"engagement_rate_percent"`
}

// WeekdayViews is the mean view count for one weekday. Weekdays without
// records are omitted from the output, not zero-filled.
type WeekdayViews struct {
	WeekdayIndex int     `json:"weekday_index"`
	WeekdayLabel string  `json:"weekday_label"`
	AvgViews     float64 `json:"avg_views"`
}

// WeekdayEngagement is the mean engagement rate (as a percentage) for one
// weekday, with the same omit-if-empty policy as WeekdayViews.
type WeekdayEngagement struct {
	WeekdayIndex             int     `json:"weekday_index"`
	WeekdayLabel             string  `json:"weekday_label"`
	AvgEngagementRatePercent float64 `json:"avg_engagement_rate_percent"`
}

// CadenceBucket aggregates posts by the time elapsed since the previous post.
// The output always contains the five fixed buckets in order; empty buckets
// carry zero means.
type CadenceBucket struct {
	Label                    string  `json:"label"`
	Posts                    int     `json:"posts"`
	AvgViews                 float64 `json:"avg_views"`
	AvgEngagementRatePercent float64 `json:"avg_engagement_rate_percent"`
}

// TimeOfDayBucket aggregates posts by hour-of-day segment. Like
// CadenceBucket the five segments are always present and zero-filled.
type TimeOfDayBucket struct {
	Label                    string  `json:"label"`
	Posts                    int     `json:"posts"`
	AvgViews                 float64 `json:"avg_views"`
	AvgEngagementRatePercent float64 `json:"avg_engagement_rate_percent"`
}

// PostTypeStats holds per-type means, sorted descending by AvgViews. Types
// absent from the filtered set are omitted.
type PostTypeStats struct {
	PostType                 string  `json:"post_type"`
	Posts                    int     `json:"posts"`
	AvgViews                 float64 `json:"avg_views"`
	AvgEngagementRatePercent float64 `json:"avg_engagement_rate_percent"`
}

// HeatmapCell is one populated (weekday, hour) cell. Cells without records
// are absent from the heatmap; a missing cell means "no data", which is
// distinct from a populated cell whose mean is zero.
type HeatmapCell struct {
	WeekdayIndex int     `json:"weekday_index"`
	Hour         int     `json:"hour"`
	Posts        int     `json:"posts"`
	AvgViews     float64 `json:"avg_views"`
}

// Heatmap is the sparse weekday-by-hour grid. MaxAvgViews is 1 when no cells
// are populated so downstream color normalization never divides by zero.
type Heatmap struct {
	Cells       []HeatmapCell `json:"cells"`
	MaxAvgViews float64       `json:"max_avg_views"`
}
