package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"RentScope/internal/model"
)

// Collector orchestrates loading a source into an immutable dataset.
type Collector struct {
	Loader Loader
}

// NewCollector creates a new Collector.
func NewCollector(loader Loader) *Collector {
	return &Collector{Loader: loader}
}

// Collect loads the source and stamps the result with a fresh version.
// Records are kept in source order without deduplication.
func (c *Collector) Collect(ctx context.Context) (*model.Dataset, error) {
	start := time.Now()
	t, err := c.Loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.Loader.Name(), err)
	}
	if len(t.Records) == 0 {
		return nil, fmt.Errorf("load %s: no usable records (%d dropped)", c.Loader.Name(), t.Dropped)
	}
	if t.Dropped > 0 {
		log.Printf("[WARN] %s: dropped %d rows with missing critical fields", c.Loader.Name(), t.Dropped)
	}

	ds := &model.Dataset{
		Version:  uuid.NewString(),
		Source:   c.Loader.Name(),
		Records:  t.Records,
		Dropped:  t.Dropped,
		LoadedAt: time.Now(),
	}
	log.Printf("[INFO] loaded %d records from %s in %v", len(ds.Records), ds.Source, time.Since(start).Round(time.Millisecond))
	return ds, nil
}
