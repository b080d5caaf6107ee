package dataprocessing

import (
	"sort"
)

// RecordStore holds the full normalized record set for one uploaded file,
// sorted ascending by timestamp. Stores are immutable: a new upload builds a
// new store that replaces the previous one wholesale.
type RecordStore struct {
	records []PostRecord
}

// BuildStore normalizes rows in order and returns the sorted store together
// with the number of rows that were skipped. The sort is stable, so rows
// sharing a timestamp keep their original relative order.
func BuildStore(n *Normalizer, rows []RawRow) (*RecordStore, int) {
	records := make([]PostRecord, 0, len(rows))
	for i, row := range rows {
		rec, ok := n.Normalize(row, i)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return &RecordStore{records: records}, len(rows) - len(records)
}

// NewStore wraps already-normalized records, sorting them the same way
// BuildStore does. Used by tests and by callers that assemble records
// directly.
func NewStore(records []PostRecord) *RecordStore {
	sorted := make([]PostRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &RecordStore{records: sorted}
}

// Records returns the store's records in timestamp order. Callers must not
// mutate the returned slice.
func (s *RecordStore) Records() []PostRecord {
	if s == nil {
		return nil
	}
	return s.records
}

// Len reports the number of records in the store.
func (s *RecordStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// MonthKeys returns the distinct month keys present in the full store, sorted
// ascending. Filter option lists always derive from the unfiltered store.
func (s *RecordStore) MonthKeys() []string {
	return s.distinct(func(r PostRecord) string { return r.MonthKey })
}

// PostTypes returns the distinct post types present in the full store, sorted
// ascending.
func (s *RecordStore) PostTypes() []string {
	return s.distinct(func(r PostRecord) string { return r.PostType })
}

func (s *RecordStore) distinct(key func(PostRecord) string) []string {
	if s == nil || len(s.records) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(s.records))
	values := make([]string, 0, 8)
	for _, r := range s.records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, k)
	}
	sort.Strings(values)
	return values
}
