package collector

import (
	"context"

	"RentScope/internal/model"
)

// Loader defines the interface for materializing rent records from a source.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
	Name() string
}

// Table is the parsed content of one or more source files.
type Table struct {
	Records []model.RentRecord
	Dropped int
}

// MockLoader returns fixed records for development and testing.
type MockLoader struct {
	Records []model.RentRecord
	Err     error
}

func (m *MockLoader) Name() string { return "mock" }

func (m *MockLoader) Load(_ context.Context) (*Table, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.RentRecord, len(m.Records))
	copy(out, m.Records)
	return &Table{Records: out}, nil
}
