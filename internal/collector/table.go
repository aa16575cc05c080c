package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"RentScope/internal/model"
)

// ErrMissingColumn is returned when a source lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const (
	colArea          = "General Area"
	colNeighbourhood = "Neighbourhood"
	colBedrooms      = "Bedrooms"
	colBathrooms     = "Bathrooms"
	colRent          = "Monthly Rent"
	colRooms         = "Rooms"
)

var requiredColumns = []string{colArea, colNeighbourhood, colBedrooms, colRent}

// columnAliases maps lower-cased header spellings to canonical names.
// "bracketed text" is the legacy export name of the General Area column.
var columnAliases = map[string]string{
	"general area":   colArea,
	"bracketed text": colArea,
	"neighbourhood":  colNeighbourhood,
	"neighborhood":   colNeighbourhood,
	"bedrooms":       colBedrooms,
	"bedroom":        colBedrooms,
	"beds":           colBedrooms,
	"bathrooms":      colBathrooms,
	"bathroom":       colBathrooms,
	"baths":          colBathrooms,
	"monthly rent":   colRent,
	"rent":           colRent,
	"rooms":          colRooms,
}

// NormalizeColumn returns the canonical name for a header cell, or the
// trimmed header when it is not a known column.
func NormalizeColumn(header string) string {
	h := strings.TrimSpace(header)
	if canonical, ok := columnAliases[strings.ToLower(h)]; ok {
		return canonical
	}
	return h
}

// parseRows converts a header row plus data rows into rent records. Rows with
// an empty or unparseable required cell are dropped and counted.
func parseRows(rows [][]string, snapshot string) (*Table, error) {
	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}

	index := make(map[string]int)
	for i, cell := range rows[headerAt] {
		name := NormalizeColumn(cell)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}

	t := &Table{}
	for _, row := range rows[headerAt+1:] {
		if blankRow(row) {
			continue
		}
		rec, ok := parseRecord(row, index)
		if !ok {
			t.Dropped++
			continue
		}
		rec.Snapshot = snapshot
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func parseRecord(row []string, index map[string]int) (model.RentRecord, bool) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := model.RentRecord{
		Area:          cell(colArea),
		Neighbourhood: cell(colNeighbourhood),
	}
	if rec.Area == "" || rec.Neighbourhood == "" {
		return rec, false
	}

	beds, ok := parseCount(cell(colBedrooms))
	if !ok || beds < 1 {
		return rec, false
	}
	rec.Bedrooms = beds

	rent, err := ParseAmount(cell(colRent))
	if err != nil || rent.IsNegative() {
		return rec, false
	}
	rec.MonthlyRent = rent.InexactFloat64()

	if baths, ok := parseCount(cell(colBathrooms)); ok && baths > 0 {
		rec.Bathrooms = baths
	}
	if rooms, ok := parseCount(cell(colRooms)); ok && rooms > 0 {
		rec.Rooms = rooms
	}
	return rec, true
}

// ParseAmount parses a currency cell such as "$1,850.00" or "1850".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

// parseCount parses a whole count, rounding spreadsheet values like "2.0" or "1.5".
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return int(d.Round(0).IntPart()), true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
