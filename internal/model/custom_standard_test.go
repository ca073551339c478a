package model

import (
	"testing"

	"gorm.io/datatypes"
)

func TestCustomStandardGetters_NilReceiver(t *testing.T) {
	var cs *CustomStandard
	if cs.CategoryWeight("potensi") != nil {
		t.Fatalf("nil standard must specify nothing")
	}
	if cs.AspectConfigFor("kecerdasan") != nil {
		t.Fatalf("nil standard must specify nothing")
	}
	if cs.SubAspectConfigFor("kec-logika") != nil {
		t.Fatalf("nil standard must specify nothing")
	}
}

func TestCustomStandardGetters(t *testing.T) {
	rating := 3.5
	cs := &CustomStandard{
		CategoryWeights: datatypes.NewJSONType(map[string]float64{"potensi": 30}),
		AspectConfigs: datatypes.NewJSONType(map[string]AspectConfig{
			"sikap-kerja": {Weight: 25, Rating: &rating, Active: true},
		}),
		SubAspectConfigs: datatypes.NewJSONType(map[string]SubAspectConfig{
			"kec-logika": {Rating: 2.5, Active: false},
		}),
	}

	if w := cs.CategoryWeight("potensi"); w == nil || *w != 30 {
		t.Fatalf("expected weight 30, got %v", w)
	}
	if w := cs.CategoryWeight("kompetensi"); w != nil {
		t.Fatalf("unspecified category must be nil, got %v", w)
	}
	cfg := cs.AspectConfigFor("sikap-kerja")
	if cfg == nil || cfg.Weight != 25 || cfg.Rating == nil || *cfg.Rating != 3.5 {
		t.Fatalf("unexpected aspect config: %+v", cfg)
	}
	sub := cs.SubAspectConfigFor("kec-logika")
	if sub == nil || sub.Rating != 2.5 || sub.Active {
		t.Fatalf("unexpected sub-aspect config: %+v", sub)
	}
}

func TestSessionAdjustmentIsEmpty(t *testing.T) {
	var adj *SessionAdjustment
	if !adj.IsEmpty() {
		t.Fatalf("nil adjustment is empty")
	}
	adj = NewSessionAdjustment()
	if !adj.IsEmpty() {
		t.Fatalf("fresh adjustment is empty")
	}
	adj.ActiveSubAspects["kec-logika"] = false
	if adj.IsEmpty() {
		t.Fatalf("an override makes the adjustment non-empty")
	}
	delete(adj.ActiveSubAspects, "kec-logika")
	if !adj.IsEmpty() {
		t.Fatalf("removing the last override makes it empty again")
	}
}

func TestSessionAdjustmentClone(t *testing.T) {
	adj := NewSessionAdjustment()
	adj.AspectWeights["sikap-kerja"] = 35

	clone := adj.Clone()
	clone.AspectWeights["sikap-kerja"] = 99
	if adj.AspectWeights["sikap-kerja"] != 35 {
		t.Fatalf("clone must not share map storage")
	}

	var nilAdj *SessionAdjustment
	if nilAdj.Clone() != nil {
		t.Fatalf("cloning nil yields nil")
	}
}

func TestAspectHasSubAspects(t *testing.T) {
	rating := 3.0
	leaf := Aspect{StandardRating: &rating}
	if leaf.HasSubAspects() {
		t.Fatalf("leaf aspect has no sub-aspects")
	}
	parent := Aspect{SubAspects: []SubAspect{{Code: "kec-logika"}}}
	if !parent.HasSubAspects() {
		t.Fatalf("aspect with sub-aspects must report so")
	}
}
