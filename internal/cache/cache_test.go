package cache

import (
	"context"
	"testing"
	"time"
)

type sampleRequest struct {
	Area  string  `json:"area"`
	Rate  float64 `json:"rate"`
	Units []int   `json:"units"`
}

func TestKey_StableAndVersioned(t *testing.T) {
	req := sampleRequest{Area: "Downtown", Rate: 5, Units: []int{1, 2}}

	a, err := Key("analysis", "v1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := Key("analysis", "v1", req)
	if a != b {
		t.Errorf("expected stable key, got %s and %s", a, b)
	}

	other, _ := Key("analysis", "v2", req)
	if other == a {
		t.Error("expected dataset version to change the key")
	}

	req.Rate = 5.5
	changed, _ := Key("analysis", "v1", req)
	if changed == a {
		t.Error("expected request change to change the key")
	}
}

func TestMemoryCache_JSONRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	in := sampleRequest{Area: "Downtown", Rate: 4.25, Units: []int{3}}
	if err := SetJSON(ctx, c, "k", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out sampleRequest
	if !GetJSON(ctx, c, "k", &out) {
		t.Fatal("expected cache hit")
	}
	if out.Area != in.Area || out.Rate != in.Rate || len(out.Units) != 1 {
		t.Errorf("unexpected value: %+v", out)
	}

	clock = clock.Add(2 * time.Minute)
	if GetJSON(ctx, c, "k", &out) {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry evicted, got %d entries", c.Len())
	}
}

func TestMemoryCache_CorruptValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, "bad", "{not json", 0)
	var out sampleRequest
	if GetJSON(ctx, c, "bad", &out) {
		t.Error("expected corrupt value to count as a miss")
	}
}
