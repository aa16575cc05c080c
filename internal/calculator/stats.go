package calculator

import (
	"math"
	"sort"

	"RentScope/internal/model"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of values, averaging the two middle values
// for even lengths. The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MinMax scans values and returns the lowest and highest entries.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Summarize computes UnitStats over a set of monthly rents.
func Summarize(rents []float64) model.UnitStats {
	if len(rents) == 0 {
		return model.UnitStats{}
	}
	lo, hi := MinMax(rents)
	return model.UnitStats{
		AverageRent: Mean(rents),
		MedianRent:  Median(rents),
		MinRent:     lo,
		MaxRent:     hi,
		Count:       len(rents),
	}
}

// ComputeUnitStats summarizes the records matching spec. Bathrooms are only
// compared when the unit sets them. No matches yields a zero-count result.
func ComputeUnitStats(records []model.RentRecord, spec model.UnitSpec) model.UnitStats {
	var rents []float64
	for _, r := range records {
		if spec.Matches(r) {
			rents = append(rents, r.MonthlyRent)
		}
	}
	return Summarize(rents)
}

type groupKey struct {
	bedrooms  int
	bathrooms int
}

// ComputeGroupedStats groups records by bedroom count, or by (bedrooms,
// bathrooms) when groupByBathrooms is set, ordered ascending by bedrooms
// then bathrooms.
func ComputeGroupedStats(records []model.RentRecord, groupByBathrooms bool) []model.GroupStats {
	groups := make(map[groupKey][]float64)
	for _, r := range records {
		k := groupKey{bedrooms: r.Bedrooms}
		if groupByBathrooms {
			k.bathrooms = r.Bathrooms
		}
		groups[k] = append(groups[k], r.MonthlyRent)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].bedrooms != keys[j].bedrooms {
			return keys[i].bedrooms < keys[j].bedrooms
		}
		return keys[i].bathrooms < keys[j].bathrooms
	})

	out := make([]model.GroupStats, len(keys))
	for i, k := range keys {
		out[i] = model.GroupStats{
			Bedrooms:  k.bedrooms,
			Bathrooms: k.bathrooms,
			Stats:     Summarize(groups[k]),
		}
	}
	return out
}
