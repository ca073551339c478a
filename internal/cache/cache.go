package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/quantumhc/assessment/internal/model"
)

// BaseRow is the tolerance-independent part of one ranking row. Tolerance
// is deliberately applied after the cache on every read, so that changing
// it never forces the expensive aggregation to rerun.
type BaseRow struct {
	ParticipantID    uint    `json:"participant_id"`
	ParticipantName  string  `json:"participant_name"`
	IndividualRating float64 `json:"individual_rating"`
	IndividualScore  float64 `json:"individual_score"`
	StandardRating   float64 `json:"standard_rating"`
	StandardScore    float64 `json:"standard_score"`
}

// RankingCache stores computed base rankings. No TTL: correctness depends
// entirely on every mutator invalidating the template it touched.
type RankingCache interface {
	Get(ctx context.Context, key Key) ([]BaseRow, bool)
	Put(ctx context.Context, key Key, rows []BaseRow)
	Invalidate(ctx context.Context, templateID uint)
	Clear(ctx context.Context)
}

// Key identifies one base ranking. It covers every input that can change
// the tolerance-independent result: the participant set (event, position),
// the template and category, the selected custom standard, and a content
// fingerprint of the session adjustments relevant to the template.
type Key struct {
	EventID      uint
	PositionID   uint
	TemplateID   uint
	CategoryCode string
	StandardID   string // custom standard id, or "none"
	Fingerprint  string
}

func (k Key) String() string {
	return fmt.Sprintf("rank:t%d:e%d:p%d:%s:s%s:%s",
		k.TemplateID, k.EventID, k.PositionID, k.CategoryCode, k.StandardID, k.Fingerprint)
}

// templatePrefix is the invalidation bucket for one template.
func templatePrefix(templateID uint) string {
	return fmt.Sprintf("rank:t%d:", templateID)
}

// BuildKey derives the cache key for one ranking request. Tolerance is
// not an input here on purpose.
func BuildKey(eventID, positionID, templateID uint, categoryCode string, selectedStandardID *uint, adj *model.SessionAdjustment) Key {
	std := "none"
	if selectedStandardID != nil {
		std = fmt.Sprintf("%d", *selectedStandardID)
	}
	return Key{
		EventID:      eventID,
		PositionID:   positionID,
		TemplateID:   templateID,
		CategoryCode: categoryCode,
		StandardID:   std,
		Fingerprint:  fingerprint(adj),
	}
}

// fingerprint hashes the adjustment content. encoding/json writes map keys
// in sorted order, so identical adjustment state always hashes the same
// regardless of insertion order. AdjustedAt is excluded: it never changes
// a computed value.
func fingerprint(adj *model.SessionAdjustment) string {
	if adj.IsEmpty() {
		return "base"
	}
	payload := struct {
		CategoryWeights  map[string]float64 `json:"cw"`
		AspectWeights    map[string]float64 `json:"aw"`
		AspectRatings    map[string]float64 `json:"ar"`
		SubAspectRatings map[string]float64 `json:"sr"`
		ActiveAspects    map[string]bool    `json:"aa"`
		ActiveSubAspects map[string]bool    `json:"as"`
	}{
		adj.CategoryWeights,
		adj.AspectWeights,
		adj.AspectRatings,
		adj.SubAspectRatings,
		adj.ActiveAspects,
		adj.ActiveSubAspects,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
