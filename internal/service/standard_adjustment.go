package service

import (
	"fmt"
	"math"
	"time"

	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
)

// MinActiveAspectsPerCategory is the floor the validators enforce: a
// ranking over fewer aspects stops being meaningful for selection.
const MinActiveAspectsPerCategory = 3

const (
	MinRating = 1.0
	MaxRating = 5.0
)

func floatsEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

// saveOverride writes value into overrides[code], or removes the entry
// when value equals the current custom-else-quantum baseline. Keeping the
// map sparse keeps "is adjusted?" queries truthful.
func saveOverride(overrides map[string]float64, code string, value, baseline float64) {
	if floatsEqual(value, baseline) {
		delete(overrides, code)
		return
	}
	overrides[code] = value
}

func (s *standardResolverService) mutate(ctx session.Context, fn func(res *resolution, state *model.SessionState)) error {
	res, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.sessions.Update(ctx, func(state *model.SessionState) {
		fn(res, state)
		state.Adjustment.AdjustedAt = time.Now()
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

func (s *standardResolverService) SaveCategoryWeight(ctx session.Context, categoryCode string, weight float64) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		saveOverride(state.Adjustment.CategoryWeights, categoryCode, weight, res.baselineCategoryWeight(categoryCode))
	})
}

// SaveBothCategoryWeights writes the category weight pair atomically. A
// pair not summing to 100 is a contract violation the UI must never allow,
// so it fails hard instead of producing a validation map.
func (s *standardResolverService) SaveBothCategoryWeights(ctx session.Context, codeA string, weightA float64, codeB string, weightB float64) error {
	if !floatsEqual(weightA+weightB, 100) {
		return fmt.Errorf("category weights must sum to 100, got %.2f + %.2f", weightA, weightB)
	}
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		saveOverride(state.Adjustment.CategoryWeights, codeA, weightA, res.baselineCategoryWeight(codeA))
		saveOverride(state.Adjustment.CategoryWeights, codeB, weightB, res.baselineCategoryWeight(codeB))
	})
}

func (s *standardResolverService) SaveAspectWeight(ctx session.Context, aspectCode string, weight float64) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		saveOverride(state.Adjustment.AspectWeights, aspectCode, weight, res.baselineAspectWeight(aspectCode))
	})
}

func (s *standardResolverService) SaveAspectRating(ctx session.Context, aspectCode string, rating float64) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		saveOverride(state.Adjustment.AspectRatings, aspectCode, rating, res.baselineAspectRating(aspectCode))
	})
}

func (s *standardResolverService) SaveSubAspectRating(ctx session.Context, subAspectCode string, rating float64) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		saveOverride(state.Adjustment.SubAspectRatings, subAspectCode, rating, res.baselineSubAspectRating(subAspectCode))
	})
}

// SetAspectActive records deactivation as an explicit override; setting an
// aspect back to active removes the override unless the baseline itself is
// inactive, in which case an explicit true entry is needed to beat it.
func (s *standardResolverService) SetAspectActive(ctx session.Context, aspectCode string, active bool) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		if active == res.baselineAspectActive(aspectCode) {
			delete(state.Adjustment.ActiveAspects, aspectCode)
			return
		}
		state.Adjustment.ActiveAspects[aspectCode] = active
	})
}

func (s *standardResolverService) SetSubAspectActive(ctx session.Context, subAspectCode string, active bool) error {
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		if active == res.baselineSubAspectActive(subAspectCode) {
			delete(state.Adjustment.ActiveSubAspects, subAspectCode)
			return
		}
		state.Adjustment.ActiveSubAspects[subAspectCode] = active
	})
}

// SaveBulkAdjustments writes every provided key as-is, without baseline
// filtering. Used to restore a known-good adjustment state; the caller is
// responsible for the content.
func (s *standardResolverService) SaveBulkAdjustments(ctx session.Context, adj *model.SessionAdjustment) error {
	if adj == nil {
		return nil
	}
	s.sessions.Update(ctx, func(state *model.SessionState) {
		for code, w := range adj.CategoryWeights {
			state.Adjustment.CategoryWeights[code] = w
		}
		for code, w := range adj.AspectWeights {
			state.Adjustment.AspectWeights[code] = w
		}
		for code, r := range adj.AspectRatings {
			state.Adjustment.AspectRatings[code] = r
		}
		for code, r := range adj.SubAspectRatings {
			state.Adjustment.SubAspectRatings[code] = r
		}
		for code, a := range adj.ActiveAspects {
			state.Adjustment.ActiveAspects[code] = a
		}
		for code, a := range adj.ActiveSubAspects {
			state.Adjustment.ActiveSubAspects[code] = a
		}
		state.Adjustment.AdjustedAt = time.Now()
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

// SaveBulkSelection persists a multi-field form submission, filtering each
// entry against the baseline exactly like the single-key saves.
func (s *standardResolverService) SaveBulkSelection(ctx session.Context, adj *model.SessionAdjustment) error {
	if adj == nil {
		return nil
	}
	return s.mutate(ctx, func(res *resolution, state *model.SessionState) {
		for code, w := range adj.CategoryWeights {
			saveOverride(state.Adjustment.CategoryWeights, code, w, res.baselineCategoryWeight(code))
		}
		for code, w := range adj.AspectWeights {
			saveOverride(state.Adjustment.AspectWeights, code, w, res.baselineAspectWeight(code))
		}
		for code, r := range adj.AspectRatings {
			saveOverride(state.Adjustment.AspectRatings, code, r, res.baselineAspectRating(code))
		}
		for code, r := range adj.SubAspectRatings {
			saveOverride(state.Adjustment.SubAspectRatings, code, r, res.baselineSubAspectRating(code))
		}
		for code, active := range adj.ActiveAspects {
			if active == res.baselineAspectActive(code) {
				delete(state.Adjustment.ActiveAspects, code)
			} else {
				state.Adjustment.ActiveAspects[code] = active
			}
		}
		for code, active := range adj.ActiveSubAspects {
			if active == res.baselineSubAspectActive(code) {
				delete(state.Adjustment.ActiveSubAspects, code)
			} else {
				state.Adjustment.ActiveSubAspects[code] = active
			}
		}
	})
}

func (s *standardResolverService) ResetAdjustments(ctx session.Context) error {
	s.sessions.Update(ctx, func(state *model.SessionState) {
		state.Adjustment = model.NewSessionAdjustment()
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

// ResetCategoryAdjustments removes only the overrides belonging to the
// given category - its weight, its aspects and their sub-aspects - leaving
// the other category untouched.
func (s *standardResolverService) ResetCategoryAdjustments(ctx session.Context, categoryCode string) error {
	res, err := s.load(ctx)
	if err != nil {
		return err
	}
	category, ok := res.idx.categories[categoryCode]
	if !ok {
		return nil
	}
	s.sessions.Update(ctx, func(state *model.SessionState) {
		delete(state.Adjustment.CategoryWeights, categoryCode)
		for i := range category.Aspects {
			aspect := &category.Aspects[i]
			delete(state.Adjustment.AspectWeights, aspect.Code)
			delete(state.Adjustment.AspectRatings, aspect.Code)
			delete(state.Adjustment.ActiveAspects, aspect.Code)
			for j := range aspect.SubAspects {
				sub := &aspect.SubAspects[j]
				delete(state.Adjustment.SubAspectRatings, sub.Code)
				delete(state.Adjustment.ActiveSubAspects, sub.Code)
			}
		}
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

// ResetCategoryWeights removes the category-weight overrides only.
func (s *standardResolverService) ResetCategoryWeights(ctx session.Context) error {
	s.sessions.Update(ctx, func(state *model.SessionState) {
		state.Adjustment.CategoryWeights = make(map[string]float64)
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

func (s *standardResolverService) HasAdjustments(ctx session.Context) bool {
	state := s.sessions.Get(ctx)
	return state != nil && !state.Adjustment.IsEmpty()
}

func (s *standardResolverService) GetAdjustments(ctx session.Context) *model.SessionAdjustment {
	state := s.sessions.Get(ctx)
	if state == nil || state.Adjustment == nil {
		return model.NewSessionAdjustment()
	}
	return state.Adjustment
}

// --- soft validation ---

// ValidateAdjustments checks a proposed adjustment overlay against the
// current effective configuration and returns a field-keyed error map.
// An empty map means the overlay is acceptable; this method never fails
// on user input.
func (s *standardResolverService) ValidateAdjustments(ctx session.Context, adj *model.SessionAdjustment) (map[string]string, error) {
	res, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.validateOverlay(res, adj, false), nil
}

// ValidateSelection checks a full form submission against the baseline
// (custom-else-quantum) configuration, ignoring any in-progress session
// overrides.
func (s *standardResolverService) ValidateSelection(ctx session.Context, adj *model.SessionAdjustment) (map[string]string, error) {
	res, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.validateOverlay(res, adj, true), nil
}

func (s *standardResolverService) validateOverlay(res *resolution, adj *model.SessionAdjustment, fromBaseline bool) map[string]string {
	errs := make(map[string]string)
	if adj == nil {
		adj = model.NewSessionAdjustment()
	}

	for code, rating := range adj.AspectRatings {
		if rating < MinRating-floatTolerance || rating > MaxRating+floatTolerance {
			errs["aspect_ratings."+code] = fmt.Sprintf("rating must be between %.0f and %.0f", MinRating, MaxRating)
		}
	}
	for code, rating := range adj.SubAspectRatings {
		if rating < MinRating-floatTolerance || rating > MaxRating+floatTolerance {
			errs["sub_aspect_ratings."+code] = fmt.Sprintf("rating must be between %.0f and %.0f", MinRating, MaxRating)
		}
	}

	// Effective lookups after the overlay is applied.
	effCategoryWeight := func(code string) float64 {
		if w, ok := adj.CategoryWeights[code]; ok {
			return w
		}
		if fromBaseline {
			return res.baselineCategoryWeight(code)
		}
		return res.categoryWeight(code)
	}
	effAspectActive := func(code string) bool {
		if a, ok := adj.ActiveAspects[code]; ok {
			return a
		}
		if fromBaseline {
			return res.baselineAspectActive(code)
		}
		return res.aspectActive(code)
	}
	effSubAspectActive := func(code string) bool {
		if a, ok := adj.ActiveSubAspects[code]; ok {
			return a
		}
		if fromBaseline {
			return res.baselineSubAspectActive(code)
		}
		return res.subAspectActive(code)
	}

	total := 0.0
	for code := range res.idx.categories {
		total += effCategoryWeight(code)
	}
	if !floatsEqual(total, 100) {
		errs["category_weights"] = fmt.Sprintf("category weights must total 100%%, got %.2f%%", total)
	}

	for code, category := range res.idx.categories {
		active := 0
		for i := range category.Aspects {
			aspect := &category.Aspects[i]
			if !effAspectActive(aspect.Code) {
				continue
			}
			active++
			if aspect.HasSubAspects() {
				activeSubs := 0
				for j := range aspect.SubAspects {
					if effSubAspectActive(aspect.SubAspects[j].Code) {
						activeSubs++
					}
				}
				if activeSubs == 0 {
					errs["active_sub_aspects."+aspect.Code] = "an active aspect needs at least one active sub-aspect"
				}
			}
		}
		if active < MinActiveAspectsPerCategory {
			errs["active_aspects."+code] = fmt.Sprintf("at least %d aspects must stay active per category", MinActiveAspectsPerCategory)
		}
	}

	if len(errs) > 0 {
		log.Debug().Int("errors", len(errs)).Msg("Adjustment validation rejected overlay")
	}
	return errs
}
