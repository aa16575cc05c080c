package model

// AreaField names the geography column used to filter the rent dataset.
type AreaField string

const (
	FieldGeneralArea   AreaField = "General Area"
	FieldNeighbourhood AreaField = "Neighbourhood"
)

// Valid reports whether f is one of the known geography columns.
func (f AreaField) Valid() bool {
	return f == FieldGeneralArea || f == FieldNeighbourhood
}

// RentRecord is a single rental listing. Bathrooms and Rooms are 0 when unknown.
type RentRecord struct {
	Area          string  `json:"general_area"`
	Neighbourhood string  `json:"neighbourhood"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms,omitempty"`
	Rooms         int     `json:"rooms,omitempty"`
	MonthlyRent   float64 `json:"monthly_rent"`
	Snapshot      string  `json:"snapshot,omitempty"` // source file of a dated snapshot
}

// AreaValue returns the record's value for the given geography column.
func (r RentRecord) AreaValue(field AreaField) string {
	switch field {
	case FieldGeneralArea:
		return r.Area
	case FieldNeighbourhood:
		return r.Neighbourhood
	}
	return ""
}

// UnitSpec describes one unit being analyzed. Bathrooms == 0 means any.
type UnitSpec struct {
	Bedrooms  int `json:"bedrooms" yaml:"bedrooms" validate:"gte=1"`
	Bathrooms int `json:"bathrooms,omitempty" yaml:"bathrooms" validate:"gte=0"`
}

// HasBathrooms reports whether the unit also filters on bathroom count.
func (u UnitSpec) HasBathrooms() bool { return u.Bathrooms > 0 }

// Matches reports whether r belongs to the unit category.
func (u UnitSpec) Matches(r RentRecord) bool {
	if r.Bedrooms != u.Bedrooms {
		return false
	}
	return !u.HasBathrooms() || r.Bathrooms == u.Bathrooms
}

// UnitStats summarizes the monthly rent of records matching a UnitSpec.
// When Count is 0 the monetary fields carry no information.
type UnitStats struct {
	AverageRent float64 `json:"average_rent"`
	MedianRent  float64 `json:"median_rent"`
	MinRent     float64 `json:"min_rent"`
	MaxRent     float64 `json:"max_rent"`
	Count       int     `json:"count"`
}

// HasData reports whether any record contributed to the stats.
func (s UnitStats) HasData() bool { return s.Count > 0 }

// GroupStats is one row of a grouped rent summary.
// Bathrooms is 0 when the grouping ignores bathrooms.
type GroupStats struct {
	Bedrooms  int       `json:"bedrooms"`
	Bathrooms int       `json:"bathrooms,omitempty"`
	Stats     UnitStats `json:"stats"`
}
