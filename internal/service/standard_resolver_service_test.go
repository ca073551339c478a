package service

import (
	"math"
	"testing"

	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/datatypes"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func floatPtr(v float64) *float64 { return &v }

// customStandard3070 is a persisted override set: potensi 30 / kompetensi
// 70, sikap-kerja rating 3.5, kec-numerik inactive-free.
func customStandard3070() *model.CustomStandard {
	return &model.CustomStandard{
		InstitutionID: 1,
		TemplateID:    1,
		Code:          "std-bkd",
		Name:          "Standar BKD",
		IsActive:      true,
		CategoryWeights: datatypes.NewJSONType(map[string]float64{
			model.CategoryPotensi:    30,
			model.CategoryKompetensi: 70,
		}),
		AspectConfigs: datatypes.NewJSONType(map[string]model.AspectConfig{
			"kecerdasan":  {Weight: 50, Active: true},
			"sikap-kerja": {Weight: 25, Rating: floatPtr(3.5), Active: true},
		}),
		SubAspectConfigs: datatypes.NewJSONType(map[string]model.SubAspectConfig{
			"kec-logika": {Rating: 2.5, Active: true},
		}),
	}
}

func TestGetCategoryWeight_QuantumDefault(t *testing.T) {
	h := newResolverHarness()
	w, err := h.resolver.GetCategoryWeight(h.ctx, model.CategoryPotensi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 40 {
		t.Fatalf("expected quantum weight 40, got %v", w)
	}
}

func TestGetCategoryWeight_PriorityChain(t *testing.T) {
	h := newResolverHarness()
	h.selectStandard(customStandard3070())

	w, _ := h.resolver.GetCategoryWeight(h.ctx, model.CategoryPotensi)
	if w != 30 {
		t.Fatalf("expected custom standard weight 30, got %v", w)
	}

	// Session override beats the selected standard.
	if err := h.resolver.SaveBothCategoryWeights(h.ctx, model.CategoryPotensi, 35, model.CategoryKompetensi, 65); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, _ = h.resolver.GetCategoryWeight(h.ctx, model.CategoryPotensi)
	if w != 35 {
		t.Fatalf("expected session weight 35, got %v", w)
	}
	w, _ = h.resolver.GetCategoryWeight(h.ctx, model.CategoryKompetensi)
	if w != 65 {
		t.Fatalf("expected session weight 65, got %v", w)
	}
}

func TestSaveBothCategoryWeights_RejectsBadSum(t *testing.T) {
	h := newResolverHarness()
	if err := h.resolver.SaveBothCategoryWeights(h.ctx, model.CategoryPotensi, 40, model.CategoryKompetensi, 50); err == nil {
		t.Fatalf("expected hard error for 40+50")
	}
	if h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("rejected save must not leave overrides behind")
	}
}

func TestWriteAvoidance_EqualToBaselineRemovesOverride(t *testing.T) {
	h := newResolverHarness()

	// Saving the quantum value itself never creates an entry.
	if err := h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("saving the baseline value must not create an override")
	}

	// Different value writes, restoring the baseline removes again.
	if err := h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 35); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("expected an override after saving 35")
	}
	if err := h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("restoring the baseline must delete the override and the empty bucket")
	}
}

func TestWriteAvoidance_BaselineIsCustomStandard(t *testing.T) {
	h := newResolverHarness()
	h.selectStandard(customStandard3070())

	// 3.5 equals the custom standard's sikap-kerja rating, not quantum 3.
	if err := h.resolver.SaveAspectRating(h.ctx, "sikap-kerja", 3.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("value equal to the custom-standard baseline must not be recorded")
	}
}

func TestAspectRating_ComputedFromSubAspects(t *testing.T) {
	h := newResolverHarness()

	r, _ := h.resolver.GetAspectRating(h.ctx, "kecerdasan")
	if !almostEqual(r, 3.0) {
		t.Fatalf("expected (2+3+4)/3 = 3.0, got %v", r)
	}

	// Disabling the sub-aspect rated 4 leaves (2+3)/2 = 2.5.
	if err := h.resolver.SetSubAspectActive(h.ctx, "kec-numerik", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ = h.resolver.GetAspectRating(h.ctx, "kecerdasan")
	if !almostEqual(r, 2.5) {
		t.Fatalf("expected 2.5 after disabling the 4-rated sub-aspect, got %v", r)
	}

	// Zero active sub-aspects floors the rating at 0.
	_ = h.resolver.SetSubAspectActive(h.ctx, "kec-logika", false)
	_ = h.resolver.SetSubAspectActive(h.ctx, "kec-verbal", false)
	r, _ = h.resolver.GetAspectRating(h.ctx, "kecerdasan")
	if r != 0 {
		t.Fatalf("expected zero-floor rating with no active sub-aspects, got %v", r)
	}
}

func TestAspectRating_SessionSubAspectOverrideFeedsAverage(t *testing.T) {
	h := newResolverHarness()
	if err := h.resolver.SaveSubAspectRating(h.ctx, "kec-logika", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := h.resolver.GetAspectRating(h.ctx, "kecerdasan")
	if !almostEqual(r, 4.0) {
		t.Fatalf("expected (5+3+4)/3 = 4.0, got %v", r)
	}
}

func TestAspectRating_CustomStandardLayers(t *testing.T) {
	h := newResolverHarness()
	h.selectStandard(customStandard3070())

	// Direct-rated aspect takes the standard's rating.
	r, _ := h.resolver.GetAspectRating(h.ctx, "sikap-kerja")
	if !almostEqual(r, 3.5) {
		t.Fatalf("expected custom rating 3.5, got %v", r)
	}

	// Computed aspect averages resolved sub-aspects: kec-logika overridden
	// to 2.5 by the standard, the others quantum.
	r, _ = h.resolver.GetAspectRating(h.ctx, "kecerdasan")
	if !almostEqual(r, (2.5+3+4)/3) {
		t.Fatalf("expected (2.5+3+4)/3, got %v", r)
	}
}

func TestSetAspectActive_ForcesWeightZero(t *testing.T) {
	h := newResolverHarness()
	if err := h.resolver.SetAspectActive(h.ctx, "hubungan-sosial", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, _ := h.resolver.GetAspectWeight(h.ctx, "hubungan-sosial")
	if w != 0 {
		t.Fatalf("inactive aspect must weigh 0, got %v", w)
	}
	active, _ := h.resolver.IsAspectActive(h.ctx, "hubungan-sosial")
	if active {
		t.Fatalf("expected inactive")
	}

	// Re-activating returns to the quantum default and drops the entry.
	if err := h.resolver.SetAspectActive(h.ctx, "hubungan-sosial", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, _ = h.resolver.GetAspectWeight(h.ctx, "hubungan-sosial")
	if w != 30 {
		t.Fatalf("expected quantum weight 30 after re-activation, got %v", w)
	}
	if h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("re-activation to an active baseline must remove the override")
	}
}

func TestSetAspectActive_ExplicitTrueBeatsInactiveStandard(t *testing.T) {
	h := newResolverHarness()
	standard := customStandard3070()
	configs := standard.AspectConfigs.Data()
	configs["hubungan-sosial"] = model.AspectConfig{Weight: 25, Active: false}
	standard.AspectConfigs = datatypes.NewJSONType(configs)
	h.selectStandard(standard)

	active, _ := h.resolver.IsAspectActive(h.ctx, "hubungan-sosial")
	if active {
		t.Fatalf("standard marks the aspect inactive")
	}

	// An explicit true is recorded because the baseline itself is false.
	if err := h.resolver.SetAspectActive(h.ctx, "hubungan-sosial", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, _ = h.resolver.IsAspectActive(h.ctx, "hubungan-sosial")
	if !active {
		t.Fatalf("explicit true must beat the inactive standard")
	}
	if !h.resolver.HasAdjustments(h.ctx) {
		t.Fatalf("explicit true override must be recorded")
	}
}

func TestActiveFlagsDefaultTrue(t *testing.T) {
	h := newResolverHarness()
	active, _ := h.resolver.IsAspectActive(h.ctx, "kecerdasan")
	if !active {
		t.Fatalf("aspects default to active")
	}
	active, _ = h.resolver.IsSubAspectActive(h.ctx, "kec-verbal")
	if !active {
		t.Fatalf("sub-aspects default to active")
	}
}

func TestUnknownCodesResolveGracefully(t *testing.T) {
	h := newResolverHarness()
	if w, _ := h.resolver.GetAspectWeight(h.ctx, "tidak-ada"); w != 0 {
		t.Fatalf("unknown aspect weight should resolve to 0, got %v", w)
	}
	if r, _ := h.resolver.GetSubAspectRating(h.ctx, "tidak-ada"); r != 0 {
		t.Fatalf("unknown sub-aspect rating should resolve to 0, got %v", r)
	}
	if active, _ := h.resolver.IsAspectActive(h.ctx, "tidak-ada"); !active {
		t.Fatalf("unknown aspect should default to active")
	}
}

func TestResetCategoryAdjustments_LeavesOtherCategoryAlone(t *testing.T) {
	h := newResolverHarness()
	_ = h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 35)   // potensi
	_ = h.resolver.SaveAspectRating(h.ctx, "integritas", 4.5)   // kompetensi
	_ = h.resolver.SetSubAspectActive(h.ctx, "kec-verbal", false) // potensi
	_ = h.resolver.SaveCategoryWeight(h.ctx, model.CategoryPotensi, 45)

	if err := h.resolver.ResetCategoryAdjustments(h.ctx, model.CategoryPotensi); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	adj := h.resolver.GetAdjustments(h.ctx)
	if len(adj.AspectWeights) != 0 || len(adj.ActiveSubAspects) != 0 {
		t.Fatalf("potensi overrides should be gone: %+v", adj)
	}
	if _, ok := adj.CategoryWeights[model.CategoryPotensi]; ok {
		t.Fatalf("potensi category weight override should be gone")
	}
	if r, ok := adj.AspectRatings["integritas"]; !ok || r != 4.5 {
		t.Fatalf("kompetensi override must survive, got %+v", adj.AspectRatings)
	}
}

func TestResetCategoryWeights_KeepsAspectOverrides(t *testing.T) {
	h := newResolverHarness()
	_ = h.resolver.SaveBothCategoryWeights(h.ctx, model.CategoryPotensi, 45, model.CategoryKompetensi, 55)
	_ = h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 35)

	if err := h.resolver.ResetCategoryWeights(h.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, _ := h.resolver.GetCategoryWeight(h.ctx, model.CategoryPotensi)
	if w != 40 {
		t.Fatalf("category weight must fall back to quantum 40, got %v", w)
	}
	adj := h.resolver.GetAdjustments(h.ctx)
	if w, ok := adj.AspectWeights["sikap-kerja"]; !ok || w != 35 {
		t.Fatalf("aspect overrides must survive a category-weight reset")
	}
}

func TestSaveBulkAdjustments_WritesThroughWithoutFiltering(t *testing.T) {
	h := newResolverHarness()
	adj := model.NewSessionAdjustment()
	adj.AspectWeights["sikap-kerja"] = 30 // equals baseline on purpose
	adj.AspectRatings["integritas"] = 4.2

	if err := h.resolver.SaveBulkAdjustments(h.ctx, adj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := h.resolver.GetAdjustments(h.ctx)
	if _, ok := stored.AspectWeights["sikap-kerja"]; !ok {
		t.Fatalf("bulk adjustments must not filter against baseline")
	}
	if stored.AdjustedAt.IsZero() {
		t.Fatalf("bulk adjustments must stamp AdjustedAt")
	}
}

func TestSaveBulkSelection_FiltersAgainstBaseline(t *testing.T) {
	h := newResolverHarness()
	adj := model.NewSessionAdjustment()
	adj.AspectWeights["sikap-kerja"] = 30 // baseline, must be dropped
	adj.AspectRatings["integritas"] = 4.2 // differs, must be kept

	if err := h.resolver.SaveBulkSelection(h.ctx, adj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := h.resolver.GetAdjustments(h.ctx)
	if _, ok := stored.AspectWeights["sikap-kerja"]; ok {
		t.Fatalf("baseline-equal entries must be filtered")
	}
	if r, ok := stored.AspectRatings["integritas"]; !ok || r != 4.2 {
		t.Fatalf("differing entries must be kept, got %+v", stored.AspectRatings)
	}
}

func TestMutatorsInvalidateTemplateCache(t *testing.T) {
	h := newResolverHarness()
	_ = h.resolver.SaveAspectWeight(h.ctx, "sikap-kerja", 35)
	_ = h.resolver.SetAspectActive(h.ctx, "kecerdasan", false)
	_ = h.resolver.ResetAdjustments(h.ctx)
	if len(h.flushes.calls) != 3 {
		t.Fatalf("expected 3 invalidations, got %d", len(h.flushes.calls))
	}
	for _, id := range h.flushes.calls {
		if id != 1 {
			t.Fatalf("invalidation must target template 1, got %d", id)
		}
	}
}

func TestGetOriginalTemplateData_BypassesOverrides(t *testing.T) {
	h := newResolverHarness()
	h.selectStandard(customStandard3070())
	_ = h.resolver.SaveBothCategoryWeights(h.ctx, model.CategoryPotensi, 35, model.CategoryKompetensi, 65)
	_ = h.resolver.SetSubAspectActive(h.ctx, "kec-numerik", false)

	data, err := h.resolver.GetOriginalTemplateData(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Categories[0].WeightPercentage != 40 {
		t.Fatalf("expected quantum potensi weight 40, got %v", data.Categories[0].WeightPercentage)
	}
	kecerdasan := data.Categories[0].Aspects[0]
	if !almostEqual(kecerdasan.ComputedRating, 3.0) {
		t.Fatalf("expected quantum computed rating 3.0 over all sub-aspects, got %v", kecerdasan.ComputedRating)
	}
	if len(kecerdasan.SubAspects) != 3 {
		t.Fatalf("expected all 3 sub-aspects, got %d", len(kecerdasan.SubAspects))
	}
}

func TestGetOriginalTemplateData_UnknownTemplate(t *testing.T) {
	h := newResolverHarness()
	if _, err := h.resolver.GetOriginalTemplateData(99); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestValidateAdjustments(t *testing.T) {
	h := newResolverHarness()

	adj := model.NewSessionAdjustment()
	adj.AspectRatings["integritas"] = 5.5
	adj.CategoryWeights[model.CategoryPotensi] = 45 // kompetensi stays 60 -> 105
	adj.ActiveAspects["kecerdasan"] = false          // leaves 2 active in potensi
	errs, err := h.resolver.ValidateAdjustments(h.ctx, adj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := errs["aspect_ratings.integritas"]; !ok {
		t.Fatalf("expected rating range error, got %v", errs)
	}
	if _, ok := errs["category_weights"]; !ok {
		t.Fatalf("expected weight total error, got %v", errs)
	}
	if _, ok := errs["active_aspects."+model.CategoryPotensi]; !ok {
		t.Fatalf("expected minimum-active-aspects error, got %v", errs)
	}
}

func TestValidateAdjustments_ActiveAspectNeedsActiveSubAspect(t *testing.T) {
	h := newResolverHarness()
	adj := model.NewSessionAdjustment()
	adj.ActiveSubAspects["kec-logika"] = false
	adj.ActiveSubAspects["kec-verbal"] = false
	adj.ActiveSubAspects["kec-numerik"] = false
	errs, err := h.resolver.ValidateAdjustments(h.ctx, adj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := errs["active_sub_aspects.kecerdasan"]; !ok {
		t.Fatalf("expected sub-aspect floor error, got %v", errs)
	}
}

func TestValidateAdjustments_CleanOverlay(t *testing.T) {
	h := newResolverHarness()
	adj := model.NewSessionAdjustment()
	adj.AspectRatings["integritas"] = 4.5
	adj.CategoryWeights[model.CategoryPotensi] = 45
	adj.CategoryWeights[model.CategoryKompetensi] = 55
	errs, err := h.resolver.ValidateAdjustments(h.ctx, adj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected clean overlay, got %v", errs)
	}
}
