package service

import (
	"errors"
	"fmt"

	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/repository"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// floatTolerance bounds float comparisons everywhere weights and ratings
// are checked for equality.
const floatTolerance = 1e-9

// ResolvedAspect is one aspect with every attribute already pushed through
// the three-layer chain, plus the sub-aspects that survived the active
// filter. Ranking consumes these so that individual and standard values
// are always computed over the identical active set.
type ResolvedAspect struct {
	Aspect           *model.Aspect
	Active           bool
	Weight           float64
	StandardRating   float64
	ActiveSubAspects []model.SubAspect
}

// StandardResolverService resolves every assessment attribute through the
// priority chain Session > CustomStandard > QuantumDefault and owns the
// session-adjustment layer. All reads and writes are scoped by an explicit
// session.Context; there is no ambient session state.
type StandardResolverService interface {
	GetCategoryWeight(ctx session.Context, categoryCode string) (float64, error)
	GetAspectWeight(ctx session.Context, aspectCode string) (float64, error)
	GetAspectRating(ctx session.Context, aspectCode string) (float64, error)
	GetSubAspectRating(ctx session.Context, subAspectCode string) (float64, error)
	IsAspectActive(ctx session.Context, aspectCode string) (bool, error)
	IsSubAspectActive(ctx session.Context, subAspectCode string) (bool, error)

	SaveCategoryWeight(ctx session.Context, categoryCode string, weight float64) error
	SaveBothCategoryWeights(ctx session.Context, codeA string, weightA float64, codeB string, weightB float64) error
	SaveAspectWeight(ctx session.Context, aspectCode string, weight float64) error
	SaveAspectRating(ctx session.Context, aspectCode string, rating float64) error
	SaveSubAspectRating(ctx session.Context, subAspectCode string, rating float64) error
	SetAspectActive(ctx session.Context, aspectCode string, active bool) error
	SetSubAspectActive(ctx session.Context, subAspectCode string, active bool) error

	SaveBulkAdjustments(ctx session.Context, adj *model.SessionAdjustment) error
	SaveBulkSelection(ctx session.Context, adj *model.SessionAdjustment) error
	ResetAdjustments(ctx session.Context) error
	ResetCategoryAdjustments(ctx session.Context, categoryCode string) error
	ResetCategoryWeights(ctx session.Context) error
	HasAdjustments(ctx session.Context) bool
	GetAdjustments(ctx session.Context) *model.SessionAdjustment

	GetOriginalTemplateData(templateID uint) (*dto.TemplateDataDTO, error)
	ValidateAdjustments(ctx session.Context, adj *model.SessionAdjustment) (map[string]string, error)
	ValidateSelection(ctx session.Context, adj *model.SessionAdjustment) (map[string]string, error)

	ResolveCategoryAspects(ctx session.Context, categoryCode string) ([]ResolvedAspect, error)
	ResolveAspectsByID(ctx session.Context, aspectIDs []uint) ([]ResolvedAspect, error)
}

type standardResolverService struct {
	templateRepo repository.TemplateRepository
	standardRepo repository.CustomStandardRepository
	sessions     session.Store
	invalidator  CacheInvalidator
}

// CacheInvalidator is the slice of the ranking cache the resolver needs:
// every mutator drops the template's cached rankings.
type CacheInvalidator interface {
	InvalidateTemplate(templateID uint)
}

func NewStandardResolverService(
	templateRepo repository.TemplateRepository,
	standardRepo repository.CustomStandardRepository,
	sessions session.Store,
	invalidator CacheInvalidator,
) StandardResolverService {
	return &standardResolverService{
		templateRepo: templateRepo,
		standardRepo: standardRepo,
		sessions:     sessions,
		invalidator:  invalidator,
	}
}

// templateIndex holds one template's quantum tree indexed by code and id.
type templateIndex struct {
	template    *model.AssessmentTemplate
	categories  map[string]*model.CategoryType
	aspects     map[string]*model.Aspect
	aspectsByID map[uint]*model.Aspect
	subAspects  map[string]*model.SubAspect
	parentOfSub map[string]*model.Aspect
}

func buildTemplateIndex(template *model.AssessmentTemplate) *templateIndex {
	idx := &templateIndex{
		template:    template,
		categories:  make(map[string]*model.CategoryType),
		aspects:     make(map[string]*model.Aspect),
		aspectsByID: make(map[uint]*model.Aspect),
		subAspects:  make(map[string]*model.SubAspect),
		parentOfSub: make(map[string]*model.Aspect),
	}
	for ci := range template.Categories {
		category := &template.Categories[ci]
		idx.categories[category.Code] = category
		for ai := range category.Aspects {
			aspect := &category.Aspects[ai]
			idx.aspects[aspect.Code] = aspect
			idx.aspectsByID[aspect.ID] = aspect
			for si := range aspect.SubAspects {
				sub := &aspect.SubAspects[si]
				idx.subAspects[sub.Code] = sub
				idx.parentOfSub[sub.Code] = aspect
			}
		}
	}
	return idx
}

// resolution is one frozen view of all three layers for a template: the
// quantum tree, the session state and the hydrated selected standard.
type resolution struct {
	idx      *templateIndex
	state    *model.SessionState
	standard *model.CustomStandard
}

func (r *resolution) adjustment() *model.SessionAdjustment {
	if r.state == nil {
		return nil
	}
	return r.state.Adjustment
}

func (s *standardResolverService) load(ctx session.Context) (*resolution, error) {
	template, err := s.templateRepo.FindByIDWithTree(ctx.TemplateID)
	if err != nil {
		log.Error().Err(err).Uint("templateID", ctx.TemplateID).Msg("Resolver: template load failed")
		return nil, fmt.Errorf("template %d not found: %w", ctx.TemplateID, err)
	}

	res := &resolution{idx: buildTemplateIndex(template), state: s.sessions.Get(ctx)}

	if res.state != nil && res.state.SelectedStandardID != nil {
		standard, err := s.standardRepo.FindByID(*res.state.SelectedStandardID)
		switch {
		case err == nil && standard.TemplateID == ctx.TemplateID && standard.IsActive:
			res.standard = standard
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("loading selected standard: %w", err)
		default:
			// Stale or mismatched selection: resolve as if none were
			// selected rather than failing the whole request.
			log.Warn().Uint("standardID", *res.state.SelectedStandardID).
				Uint("templateID", ctx.TemplateID).
				Msg("Resolver: selected standard unusable, falling back to quantum")
		}
	}
	return res, nil
}

// resolveChain is the single place the priority order lives. Layers are
// tried in the given order; a layer either produces a value or passes.
func resolveChain[T any](quantum T, layers ...func() (T, bool)) T {
	for _, layer := range layers {
		if v, ok := layer(); ok {
			return v
		}
	}
	return quantum
}

func floatLayer(m map[string]float64, code string) func() (float64, bool) {
	return func() (float64, bool) {
		if m == nil {
			return 0, false
		}
		v, ok := m[code]
		return v, ok
	}
}

func boolLayer(m map[string]bool, code string) func() (bool, bool) {
	return func() (bool, bool) {
		if m == nil {
			return false, false
		}
		v, ok := m[code]
		return v, ok
	}
}

// --- attribute resolution (session layer included) ---

func (r *resolution) categoryWeight(code string) float64 {
	quantum := 0.0
	if category, ok := r.idx.categories[code]; ok {
		quantum = category.WeightPercentage
	}
	adj := r.adjustment()
	var sessionWeights map[string]float64
	if adj != nil {
		sessionWeights = adj.CategoryWeights
	}
	return resolveChain(quantum,
		floatLayer(sessionWeights, code),
		func() (float64, bool) {
			if w := r.standard.CategoryWeight(code); w != nil {
				return *w, true
			}
			return 0, false
		},
	)
}

func (r *resolution) subAspectActive(code string) bool {
	adj := r.adjustment()
	var sessionActive map[string]bool
	if adj != nil {
		sessionActive = adj.ActiveSubAspects
	}
	return resolveChain(true,
		boolLayer(sessionActive, code),
		func() (bool, bool) {
			if cfg := r.standard.SubAspectConfigFor(code); cfg != nil {
				return cfg.Active, true
			}
			return false, false
		},
	)
}

func (r *resolution) aspectActive(code string) bool {
	adj := r.adjustment()
	var sessionActive map[string]bool
	if adj != nil {
		sessionActive = adj.ActiveAspects
	}
	return resolveChain(true,
		boolLayer(sessionActive, code),
		func() (bool, bool) {
			if cfg := r.standard.AspectConfigFor(code); cfg != nil {
				return cfg.Active, true
			}
			return false, false
		},
	)
}

func (r *resolution) subAspectRating(code string) float64 {
	quantum := 0.0
	if sub, ok := r.idx.subAspects[code]; ok {
		quantum = sub.StandardRating
	}
	adj := r.adjustment()
	var sessionRatings map[string]float64
	if adj != nil {
		sessionRatings = adj.SubAspectRatings
	}
	return resolveChain(quantum,
		floatLayer(sessionRatings, code),
		func() (float64, bool) {
			if cfg := r.standard.SubAspectConfigFor(code); cfg != nil {
				return cfg.Rating, true
			}
			return 0, false
		},
	)
}

// aspectRating resolves an aspect's effective standard rating. For an
// aspect with sub-aspects the value is never stored: it is the average of
// the fully-resolved ratings of the sub-aspects whose resolved active flag
// is true, with a documented zero floor when none remain active. The
// sub-aspect pass runs first, then the fold - the recursion never goes
// deeper than one level.
func (r *resolution) aspectRating(code string) float64 {
	if adj := r.adjustment(); adj != nil {
		if v, ok := adj.AspectRatings[code]; ok {
			return v
		}
	}

	aspect, ok := r.idx.aspects[code]
	if !ok {
		return 0
	}

	if !aspect.HasSubAspects() {
		if cfg := r.standard.AspectConfigFor(code); cfg != nil && cfg.Rating != nil {
			return *cfg.Rating
		}
		if aspect.StandardRating != nil {
			return *aspect.StandardRating
		}
		return 0
	}

	return r.computedAspectRating(aspect)
}

// computedAspectRating folds resolved sub-aspect state into the parent
// rating.
func (r *resolution) computedAspectRating(aspect *model.Aspect) float64 {
	sum := 0.0
	n := 0
	for i := range aspect.SubAspects {
		sub := &aspect.SubAspects[i]
		if !r.subAspectActive(sub.Code) {
			continue
		}
		sum += r.subAspectRating(sub.Code)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// aspectWeight resolves an aspect's effective weight. An inactive aspect
// always weighs 0, whatever any layer says.
func (r *resolution) aspectWeight(code string) float64 {
	if !r.aspectActive(code) {
		return 0
	}
	quantum := 0.0
	if aspect, ok := r.idx.aspects[code]; ok {
		quantum = aspect.WeightPercentage
	}
	adj := r.adjustment()
	var sessionWeights map[string]float64
	if adj != nil {
		sessionWeights = adj.AspectWeights
	}
	return resolveChain(quantum,
		floatLayer(sessionWeights, code),
		func() (float64, bool) {
			if cfg := r.standard.AspectConfigFor(code); cfg != nil {
				return cfg.Weight, true
			}
			return 0, false
		},
	)
}

// --- baseline resolution (session layer skipped, for write-avoidance) ---

func (r *resolution) baselineCategoryWeight(code string) float64 {
	if w := r.standard.CategoryWeight(code); w != nil {
		return *w
	}
	if category, ok := r.idx.categories[code]; ok {
		return category.WeightPercentage
	}
	return 0
}

func (r *resolution) baselineAspectWeight(code string) float64 {
	if cfg := r.standard.AspectConfigFor(code); cfg != nil {
		return cfg.Weight
	}
	if aspect, ok := r.idx.aspects[code]; ok {
		return aspect.WeightPercentage
	}
	return 0
}

func (r *resolution) baselineSubAspectActive(code string) bool {
	if cfg := r.standard.SubAspectConfigFor(code); cfg != nil {
		return cfg.Active
	}
	return true
}

func (r *resolution) baselineAspectActive(code string) bool {
	if cfg := r.standard.AspectConfigFor(code); cfg != nil {
		return cfg.Active
	}
	return true
}

func (r *resolution) baselineSubAspectRating(code string) float64 {
	if cfg := r.standard.SubAspectConfigFor(code); cfg != nil {
		return cfg.Rating
	}
	if sub, ok := r.idx.subAspects[code]; ok {
		return sub.StandardRating
	}
	return 0
}

func (r *resolution) baselineAspectRating(code string) float64 {
	aspect, ok := r.idx.aspects[code]
	if !ok {
		return 0
	}
	if !aspect.HasSubAspects() {
		if cfg := r.standard.AspectConfigFor(code); cfg != nil && cfg.Rating != nil {
			return *cfg.Rating
		}
		if aspect.StandardRating != nil {
			return *aspect.StandardRating
		}
		return 0
	}
	sum := 0.0
	n := 0
	for i := range aspect.SubAspects {
		sub := &aspect.SubAspects[i]
		if !r.baselineSubAspectActive(sub.Code) {
			continue
		}
		sum += r.baselineSubAspectRating(sub.Code)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// --- public getters ---

func (s *standardResolverService) GetCategoryWeight(ctx session.Context, categoryCode string) (float64, error) {
	res, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return res.categoryWeight(categoryCode), nil
}

func (s *standardResolverService) GetAspectWeight(ctx session.Context, aspectCode string) (float64, error) {
	res, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return res.aspectWeight(aspectCode), nil
}

func (s *standardResolverService) GetAspectRating(ctx session.Context, aspectCode string) (float64, error) {
	res, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return res.aspectRating(aspectCode), nil
}

func (s *standardResolverService) GetSubAspectRating(ctx session.Context, subAspectCode string) (float64, error) {
	res, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return res.subAspectRating(subAspectCode), nil
}

func (s *standardResolverService) IsAspectActive(ctx session.Context, aspectCode string) (bool, error) {
	res, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return res.aspectActive(aspectCode), nil
}

func (s *standardResolverService) IsSubAspectActive(ctx session.Context, subAspectCode string) (bool, error) {
	res, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return res.subAspectActive(subAspectCode), nil
}

// ResolveCategoryAspects returns the category's active aspects with their
// resolved weight, standard rating and surviving sub-aspects, in template
// order. Unknown category codes resolve to an empty set.
func (s *standardResolverService) ResolveCategoryAspects(ctx session.Context, categoryCode string) ([]ResolvedAspect, error) {
	res, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	category, ok := res.idx.categories[categoryCode]
	if !ok {
		return nil, nil
	}
	var resolved []ResolvedAspect
	for i := range category.Aspects {
		aspect := &category.Aspects[i]
		if !res.aspectActive(aspect.Code) {
			continue
		}
		resolved = append(resolved, res.resolveAspect(aspect))
	}
	return resolved, nil
}

// ResolveAspectsByID resolves the given aspects without any active
// filtering; unknown ids are skipped. Used for standalone "what is the
// standard now" displays over an explicit aspect set.
func (s *standardResolverService) ResolveAspectsByID(ctx session.Context, aspectIDs []uint) ([]ResolvedAspect, error) {
	res, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var resolved []ResolvedAspect
	for _, id := range aspectIDs {
		aspect, ok := res.idx.aspectsByID[id]
		if !ok {
			continue
		}
		resolved = append(resolved, res.resolveAspect(aspect))
	}
	return resolved, nil
}

func (r *resolution) resolveAspect(aspect *model.Aspect) ResolvedAspect {
	ra := ResolvedAspect{
		Aspect:         aspect,
		Active:         r.aspectActive(aspect.Code),
		Weight:         r.aspectWeight(aspect.Code),
		StandardRating: r.aspectRating(aspect.Code),
	}
	for i := range aspect.SubAspects {
		sub := aspect.SubAspects[i]
		if r.subAspectActive(sub.Code) {
			ra.ActiveSubAspects = append(ra.ActiveSubAspects, sub)
		}
	}
	return ra
}

// GetOriginalTemplateData bypasses every override and returns the pure
// quantum-default structure, for "no customization" displays.
func (s *standardResolverService) GetOriginalTemplateData(templateID uint) (*dto.TemplateDataDTO, error) {
	template, err := s.templateRepo.FindByIDWithTree(templateID)
	if err != nil {
		return nil, fmt.Errorf("template %d not found: %w", templateID, err)
	}

	data := &dto.TemplateDataDTO{
		TemplateID: template.ID,
		Code:       template.Code,
		Name:       template.Name,
	}
	for ci := range template.Categories {
		category := &template.Categories[ci]
		categoryDTO := dto.CategoryDataDTO{
			Code:             category.Code,
			Name:             category.Name,
			WeightPercentage: category.WeightPercentage,
			OrderNumber:      category.OrderNumber,
		}
		for ai := range category.Aspects {
			aspect := &category.Aspects[ai]
			aspectDTO := dto.AspectDataDTO{
				Code:             aspect.Code,
				Name:             aspect.Name,
				WeightPercentage: aspect.WeightPercentage,
				StandardRating:   aspect.StandardRating,
				OrderNumber:      aspect.OrderNumber,
			}
			if aspect.HasSubAspects() {
				sum := 0.0
				for si := range aspect.SubAspects {
					sub := &aspect.SubAspects[si]
					aspectDTO.SubAspects = append(aspectDTO.SubAspects, dto.SubAspectDataDTO{
						Code:           sub.Code,
						Name:           sub.Name,
						StandardRating: sub.StandardRating,
						OrderNumber:    sub.OrderNumber,
					})
					sum += sub.StandardRating
				}
				aspectDTO.ComputedRating = sum / float64(len(aspect.SubAspects))
			} else if aspect.StandardRating != nil {
				aspectDTO.ComputedRating = *aspect.StandardRating
			}
			categoryDTO.Aspects = append(categoryDTO.Aspects, aspectDTO)
		}
		data.Categories = append(data.Categories, categoryDTO)
	}
	return data, nil
}
