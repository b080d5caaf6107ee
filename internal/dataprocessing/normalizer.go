package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order when the date cell is a string. All layouts
// are interpreted in the host's local time zone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
}

// Normalizer turns one raw spreadsheet row into a PostRecord. Rows whose date
// cell cannot be resolved are skipped; every other malformed cell degrades to
// a zero value instead of failing the row.
type Normalizer struct {
	columns ColumnMap
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer for the given column mapping.
func NewNormalizer(columns ColumnMap, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		columns: columns,
		logger:  logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize produces a PostRecord from row, or ok=false when the row has no
// resolvable date. The index becomes the record ID and reflects raw ingestion
// order, not the store's sorted order.
func (n *Normalizer) Normalize(row RawRow, index int) (PostRecord, bool) {
	ts, ok := resolveDate(row[n.columns.Date])
	if !ok {
		return PostRecord{}, false
	}

	if cell, present := row[n.columns.Time]; present {
		merged, err := mergeTimeOfDay(ts, cell)
		if err != nil {
			n.logger.Debug("ignoring unparseable time cell",
				slog.Int("row", index),
				slog.String("error", err.Error()))
		} else {
			ts = merged
		}
	}

	viewsCell := row[n.columns.ViewsDaily]
	if cellEmpty(viewsCell) {
		viewsCell = row[n.columns.ViewsTotal]
	}
	views := coerceNumber(viewsCell)
	reactions := coerceNumber(row[n.columns.Reactions])

	rec := PostRecord{
		ID:             index,
		Timestamp:      ts,
		MonthKey:       fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month())),
		WeekdayIndex:   int(ts.Weekday()),
		WeekdayLabel:   WeekdayLabels[int(ts.Weekday())],
		Hour:           ts.Hour(),
		Views:          views,
		Reactions:      reactions,
		EngagementRate: resolveEngagementRate(row[n.columns.EngagementRate], reactions, views),
		PostType:       resolvePostType(row[n.columns.PostType]),
	}
	return rec, true
}

// resolveDate accepts a numeric date serial, a native date value or a
// parseable date string. Anything else fails the row.
func resolveDate(cell Cell) (time.Time, bool) {
	switch v := cell.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case float64:
		return serialToTime(v)
	case int:
		return serialToTime(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		// Raw-value workbook reads surface date serials as numeric strings.
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToTime(serial)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// serialToTime decodes a spreadsheet date serial: integer part is days since
// the epoch, fractional part is time-of-day.
func serialToTime(serial float64) (time.Time, bool) {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), true
}

// mergeTimeOfDay overrides the time-of-day of ts from a time cell. Two shapes
// are accepted: a fractional day in [0,1] where round(v*1440) gives minutes
// since midnight, and a colon-delimited H:M:S string whose missing or
// non-numeric components default to 0.
func mergeTimeOfDay(ts time.Time, cell Cell) (time.Time, error) {
	switch v := cell.(type) {
	case float64:
		return fractionToClock(ts, v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ts, nil
		}
		if !strings.Contains(s, ":") {
			if frac, err := strconv.ParseFloat(s, 64); err == nil {
				return fractionToClock(ts, frac)
			}
			return ts, fmt.Errorf("time cell %q is neither a fraction nor H:M:S", s)
		}
		parts := strings.Split(s, ":")
		var clock [3]int
		for i := 0; i < len(parts) && i < 3; i++ {
			// Non-numeric components stay 0.
			clock[i], _ = strconv.Atoi(strings.TrimSpace(parts[i]))
		}
		return time.Date(ts.Year(), ts.Month(), ts.Day(), clock[0], clock[1], clock[2], 0, ts.Location()), nil
	case time.Time:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), v.Hour(), v.Minute(), v.Second(), 0, ts.Location()), nil
	default:
		return ts, fmt.Errorf("unsupported time cell type %T", cell)
	}
}

func fractionToClock(ts time.Time, frac float64) (time.Time, error) {
	if frac < 0 || frac > 1 || math.IsNaN(frac) {
		return ts, fmt.Errorf("fractional day %v out of range", frac)
	}
	minutes := int(math.Round(frac * 1440))
	return time.Date(ts.Year(), ts.Month(), ts.Day(), minutes/60, minutes%60, 0, 0, ts.Location()), nil
}

// coerceNumber converts a cell to a finite float64, defaulting to 0. Thousand
// separators and surrounding whitespace are tolerated in string cells.
func coerceNumber(cell Cell) float64 {
	var f float64
	switch v := cell.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		s = strings.TrimSuffix(s, "%")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// resolveEngagementRate prefers the explicit ER cell (a percentage, stored as
// a fraction); otherwise it derives reactions/views, guarding the zero-views
// case.
func resolveEngagementRate(cell Cell, reactions, views float64) float64 {
	if !cellEmpty(cell) {
		return coerceNumber(cell) / 100
	}
	if views > 0 {
		return reactions / views
	}
	return 0
}

func resolvePostType(cell Cell) string {
	s := coerceString(cell)
	if s == "" {
		return DefaultPostType
	}
	return s
}

func coerceString(cell Cell) string {
	switch v := cell.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cellEmpty(cell Cell) bool {
	if cell == nil {
		return true
	}
	if s, ok := cell.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
