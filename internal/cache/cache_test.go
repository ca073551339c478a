package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/quantumhc/assessment/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func TestBuildKey_String(t *testing.T) {
	key := BuildKey(2, 3, 1, "potensi", nil, model.NewSessionAdjustment())
	got := key.String()
	want := "rank:t1:e2:p3:potensi:snone:base"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	key = BuildKey(2, 3, 1, "potensi", uintPtr(7), model.NewSessionAdjustment())
	if !strings.Contains(key.String(), ":s7:") {
		t.Fatalf("expected standard id in key, got %q", key.String())
	}
	if !strings.HasPrefix(key.String(), "rank:t1:") {
		t.Fatalf("keys must start with the template bucket prefix, got %q", key.String())
	}
}

func TestBuildKey_FingerprintTracksContent(t *testing.T) {
	base := BuildKey(1, 1, 1, "potensi", nil, model.NewSessionAdjustment())

	adj := model.NewSessionAdjustment()
	adj.AspectWeights["sikap-kerja"] = 35
	adjusted := BuildKey(1, 1, 1, "potensi", nil, adj)
	if adjusted.Fingerprint == base.Fingerprint {
		t.Fatalf("an adjustment must change the fingerprint")
	}

	// Same content written in a different order hashes the same.
	a := model.NewSessionAdjustment()
	a.AspectWeights["sikap-kerja"] = 35
	a.AspectWeights["kecerdasan"] = 45
	b := model.NewSessionAdjustment()
	b.AspectWeights["kecerdasan"] = 45
	b.AspectWeights["sikap-kerja"] = 35
	if BuildKey(1, 1, 1, "potensi", nil, a) != BuildKey(1, 1, 1, "potensi", nil, b) {
		t.Fatalf("equal content must produce equal keys")
	}

	// A nil adjustment and a freshly allocated empty one are the same state.
	if BuildKey(1, 1, 1, "potensi", nil, nil) != base {
		t.Fatalf("nil and empty adjustments must share the base key")
	}
}

func TestBuildKey_AdjustedAtExcluded(t *testing.T) {
	a := model.NewSessionAdjustment()
	a.AspectWeights["sikap-kerja"] = 35
	b := a.Clone()
	b.AdjustedAt = b.AdjustedAt.AddDate(0, 0, 1)
	if BuildKey(1, 1, 1, "potensi", nil, a) != BuildKey(1, 1, 1, "potensi", nil, b) {
		t.Fatalf("the adjustment timestamp must not feed the fingerprint")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := BuildKey(1, 1, 1, "potensi", nil, nil)

	if _, ok := c.Get(ctx, key); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	rows := []BaseRow{{ParticipantID: 1, ParticipantName: "Andi", IndividualScore: 4}}
	c.Put(ctx, key, rows)
	got, ok := c.Get(ctx, key)
	if !ok || len(got) != 1 || got[0].ParticipantName != "Andi" {
		t.Fatalf("expected the stored rows back, got %v %v", got, ok)
	}

	// The cache hands out copies; callers cannot corrupt stored state.
	got[0].IndividualScore = 0
	again, _ := c.Get(ctx, key)
	if again[0].IndividualScore != 4 {
		t.Fatalf("stored rows were mutated through a returned slice")
	}
}

func TestMemoryCache_InvalidateIsPerTemplate(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	t1 := BuildKey(1, 1, 1, "potensi", nil, nil)
	t1k := BuildKey(1, 1, 1, "kompetensi", nil, nil)
	t2 := BuildKey(1, 1, 2, "potensi", nil, nil)
	rows := []BaseRow{{ParticipantID: 1}}
	c.Put(ctx, t1, rows)
	c.Put(ctx, t1k, rows)
	c.Put(ctx, t2, rows)

	c.Invalidate(ctx, 1)
	if _, ok := c.Get(ctx, t1); ok {
		t.Fatalf("template 1 potensi entry should be gone")
	}
	if _, ok := c.Get(ctx, t1k); ok {
		t.Fatalf("template 1 kompetensi entry should be gone")
	}
	if _, ok := c.Get(ctx, t2); !ok {
		t.Fatalf("template 2 entry must survive")
	}

	c.Put(ctx, t1, rows)
	c.Clear(ctx)
	if _, ok := c.Get(ctx, t1); ok {
		t.Fatalf("clear must drop everything")
	}
	if _, ok := c.Get(ctx, t2); ok {
		t.Fatalf("clear must drop everything")
	}
}
