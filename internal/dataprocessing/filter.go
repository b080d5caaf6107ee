package dataprocessing

// Selection holds the three independent filter selectors. Each selector is
// either FilterAll or an exact value to match: a month key, a post type or a
// weekday label. Selectors combine conjunctively.
type Selection struct {
	Month    string `json:"month" validate:"required"`
	PostType string `json:"post_type" validate:"required"`
	Weekday  string `json:"weekday" validate:"required"`
}

// AllSelection returns the unrestricted selection, the state every new store
// starts with.
func AllSelection() Selection {
	return Selection{Month: FilterAll, PostType: FilterAll, Weekday: FilterAll}
}

// Apply returns the subsequence of records satisfying all active selectors,
// preserving input order. With every selector at FilterAll the input is
// returned unchanged.
func (sel Selection) Apply(records []PostRecord) []PostRecord {
	if sel.Month == FilterAll && sel.PostType == FilterAll && sel.Weekday == FilterAll {
		return records
	}
	filtered := make([]PostRecord, 0, len(records))
	for _, r := range records {
		if sel.Month != FilterAll && r.MonthKey != sel.Month {
			continue
		}
		if sel.PostType != FilterAll && r.PostType != sel.PostType {
			continue
		}
		if sel.Weekday != FilterAll && r.WeekdayLabel != sel.Weekday {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
