package model

import "time"

// Dataset is an immutable, fully loaded set of rent records.
type Dataset struct {
	Version  string // unique per load
	Source   string
	Records  []RentRecord
	Dropped  int // rows skipped for missing critical fields
	LoadedAt time.Time
}

// DatasetInfo is the metadata of a Dataset without its records.
type DatasetInfo struct {
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Info returns the dataset metadata.
func (d *Dataset) Info() DatasetInfo {
	return DatasetInfo{
		Version:  d.Version,
		Source:   d.Source,
		Rows:     len(d.Records),
		Dropped:  d.Dropped,
		LoadedAt: d.LoadedAt,
	}
}
