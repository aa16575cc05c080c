package calculator

import (
	"sort"

	"RentScope/internal/model"
)

// FilterByArea returns the records whose field equals value exactly
// (case-sensitive). It never returns nil.
func FilterByArea(records []model.RentRecord, field model.AreaField, value string) []model.RentRecord {
	out := []model.RentRecord{}
	if !field.Valid() {
		return out
	}
	for _, r := range records {
		if r.AreaValue(field) == value {
			out = append(out, r)
		}
	}
	return out
}

// DistinctValues returns the sorted, unique, non-empty values of field.
func DistinctValues(records []model.RentRecord, field model.AreaField) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if v := r.AreaValue(field); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
