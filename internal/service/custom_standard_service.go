package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/repository"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomStandardService owns the persisted institution override sets
// (layer 2) and the session-scoped "currently selected standard" pointer.
type CustomStandardService interface {
	Create(req dto.CustomStandardCreateDTO) (*dto.CustomStandardResponseDTO, error)
	Update(id uint, req dto.CustomStandardUpdateDTO) (*dto.CustomStandardResponseDTO, error)
	Delete(id uint) error
	GetByID(id uint) (*dto.CustomStandardResponseDTO, error)
	GetForInstitution(institutionID, templateID uint) ([]dto.CustomStandardResponseDTO, error)
	GetAvailableTemplates(institutionID uint) ([]dto.TemplateSummaryDTO, error)
	GetTemplateDefaults(templateID uint) (*dto.TemplateDefaultsDTO, error)

	Select(ctx session.Context, rawStandardID string) error
	GetSelected(ctx session.Context) *uint
	GetSelectedStandard(ctx session.Context) *model.CustomStandard
	ClearSelection(ctx session.Context) error

	GetCategoryWeight(standardID uint, categoryCode string) *float64
	GetAspectWeight(standardID uint, aspectCode string) *float64
	GetAspectRating(standardID uint, aspectCode string) *float64
	GetSubAspectRating(standardID uint, subAspectCode string) *float64
	IsAspectActive(standardID uint, aspectCode string) bool
	IsSubAspectActive(standardID uint, subAspectCode string) bool

	Validate(institutionID uint, code string, excludeID *uint, categoryWeights map[string]float64, aspectConfigs map[string]model.AspectConfig, subAspectConfigs map[string]model.SubAspectConfig) (map[string]string, error)
	IsCodeUnique(institutionID uint, code string, excludeID *uint) (bool, error)
}

type customStandardService struct {
	standardRepo repository.CustomStandardRepository
	templateRepo repository.TemplateRepository
	positionRepo repository.PositionRepository
	sessions     session.Store
	invalidator  CacheInvalidator
}

func NewCustomStandardService(
	standardRepo repository.CustomStandardRepository,
	templateRepo repository.TemplateRepository,
	positionRepo repository.PositionRepository,
	sessions session.Store,
	invalidator CacheInvalidator,
) CustomStandardService {
	return &customStandardService{
		standardRepo: standardRepo,
		templateRepo: templateRepo,
		positionRepo: positionRepo,
		sessions:     sessions,
		invalidator:  invalidator,
	}
}

func standardToResponse(standard *model.CustomStandard) *dto.CustomStandardResponseDTO {
	var resp dto.CustomStandardResponseDTO
	copier.Copy(&resp, standard)
	resp.CategoryWeights = standard.CategoryWeights.Data()
	resp.AspectConfigs = standard.AspectConfigs.Data()
	resp.SubAspectConfigs = standard.SubAspectConfigs.Data()
	return &resp
}

func (s *customStandardService) Create(req dto.CustomStandardCreateDTO) (*dto.CustomStandardResponseDTO, error) {
	standard := model.CustomStandard{
		InstitutionID:    req.InstitutionID,
		TemplateID:       req.TemplateID,
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		IsActive:         true,
		CategoryWeights:  datatypes.NewJSONType(req.CategoryWeights),
		AspectConfigs:    datatypes.NewJSONType(req.AspectConfigs),
		SubAspectConfigs: datatypes.NewJSONType(req.SubAspectConfigs),
	}
	if err := s.standardRepo.Create(&standard); err != nil {
		log.Error().Err(err).Msg("Failed to create custom standard")
		return nil, fmt.Errorf("database error creating custom standard: %w", err)
	}
	return standardToResponse(&standard), nil
}

func (s *customStandardService) Update(id uint, req dto.CustomStandardUpdateDTO) (*dto.CustomStandardResponseDTO, error) {
	standard, err := s.standardRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("custom standard %d not found: %w", id, err)
	}

	standard.Code = req.Code
	standard.Name = req.Name
	standard.Description = req.Description
	if req.IsActive != nil {
		standard.IsActive = *req.IsActive
	}
	standard.CategoryWeights = datatypes.NewJSONType(req.CategoryWeights)
	standard.AspectConfigs = datatypes.NewJSONType(req.AspectConfigs)
	standard.SubAspectConfigs = datatypes.NewJSONType(req.SubAspectConfigs)

	if err := s.standardRepo.Update(standard); err != nil {
		log.Error().Err(err).Uint("standardID", id).Msg("Failed to update custom standard")
		return nil, fmt.Errorf("database error updating custom standard: %w", err)
	}

	// The standard's content feeds resolved configurations; cached
	// rankings built on the old content are now stale.
	s.invalidator.InvalidateTemplate(standard.TemplateID)
	return standardToResponse(standard), nil
}

func (s *customStandardService) Delete(id uint) error {
	standard, err := s.standardRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := s.standardRepo.Delete(id); err != nil {
		log.Error().Err(err).Uint("standardID", id).Msg("Failed to delete custom standard")
		return fmt.Errorf("database error deleting custom standard: %w", err)
	}
	s.invalidator.InvalidateTemplate(standard.TemplateID)
	return nil
}

func (s *customStandardService) GetByID(id uint) (*dto.CustomStandardResponseDTO, error) {
	standard, err := s.standardRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("custom standard %d not found: %w", id, err)
	}
	return standardToResponse(standard), nil
}

func (s *customStandardService) GetForInstitution(institutionID, templateID uint) ([]dto.CustomStandardResponseDTO, error) {
	standards, err := s.standardRepo.FindForInstitution(institutionID, templateID)
	if err != nil {
		log.Error().Err(err).Uint("institutionID", institutionID).Msg("Failed to list custom standards")
		return nil, fmt.Errorf("error fetching custom standards: %w", err)
	}
	out := make([]dto.CustomStandardResponseDTO, 0, len(standards))
	for i := range standards {
		out = append(out, *standardToResponse(&standards[i]))
	}
	return out, nil
}

func (s *customStandardService) GetAvailableTemplates(institutionID uint) ([]dto.TemplateSummaryDTO, error) {
	templates, err := s.positionRepo.TemplatesForInstitution(institutionID)
	if err != nil {
		return nil, fmt.Errorf("error fetching templates for institution %d: %w", institutionID, err)
	}
	out := make([]dto.TemplateSummaryDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, dto.TemplateSummaryDTO{ID: t.ID, Code: t.Code, Name: t.Name})
	}
	return out, nil
}

// GetTemplateDefaults builds the CustomStandard config shape seeded from
// quantum data. A nonexistent template is a hard error here - the form
// this feeds can only be reached through a known template.
func (s *customStandardService) GetTemplateDefaults(templateID uint) (*dto.TemplateDefaultsDTO, error) {
	template, err := s.templateRepo.FindByIDWithTree(templateID)
	if err != nil {
		return nil, fmt.Errorf("template %d not found: %w", templateID, err)
	}

	defaults := &dto.TemplateDefaultsDTO{
		TemplateID:       template.ID,
		CategoryWeights:  make(map[string]float64),
		AspectConfigs:    make(map[string]model.AspectConfig),
		SubAspectConfigs: make(map[string]model.SubAspectConfig),
	}
	for ci := range template.Categories {
		category := &template.Categories[ci]
		defaults.CategoryWeights[category.Code] = category.WeightPercentage
		for ai := range category.Aspects {
			aspect := &category.Aspects[ai]
			cfg := model.AspectConfig{Weight: aspect.WeightPercentage, Active: true}
			if !aspect.HasSubAspects() && aspect.StandardRating != nil {
				rating := *aspect.StandardRating
				cfg.Rating = &rating
			}
			defaults.AspectConfigs[aspect.Code] = cfg
			for si := range aspect.SubAspects {
				sub := &aspect.SubAspects[si]
				defaults.SubAspectConfigs[sub.Code] = model.SubAspectConfig{
					Rating: sub.StandardRating,
					Active: true,
				}
			}
		}
	}
	return defaults, nil
}

// --- session selection ---

// NormalizeStandardID turns raw form input into a selection id. The
// literal strings "null" and "" mean no selection.
func NormalizeStandardID(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil, nil
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid standard id %q", raw)
	}
	id := uint(val)
	return &id, nil
}

// Select points the session at a custom standard (or at none) and clears
// any in-progress adjustments for the template: switching baselines
// discards overrides written against the old baseline.
func (s *customStandardService) Select(ctx session.Context, rawStandardID string) error {
	id, err := NormalizeStandardID(rawStandardID)
	if err != nil {
		return err
	}
	s.sessions.Update(ctx, func(state *model.SessionState) {
		state.Adjustment = model.NewSessionAdjustment()
		state.SelectedStandardID = id
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

func (s *customStandardService) GetSelected(ctx session.Context) *uint {
	state := s.sessions.Get(ctx)
	if state == nil {
		return nil
	}
	return state.SelectedStandardID
}

// GetSelectedStandard hydrates the selected standard, or returns nil when
// nothing is selected or the selection has gone stale.
func (s *customStandardService) GetSelectedStandard(ctx session.Context) *model.CustomStandard {
	id := s.GetSelected(ctx)
	if id == nil {
		return nil
	}
	standard, err := s.standardRepo.FindByID(*id)
	if err != nil || standard.TemplateID != ctx.TemplateID || !standard.IsActive {
		return nil
	}
	return standard
}

func (s *customStandardService) ClearSelection(ctx session.Context) error {
	s.sessions.Update(ctx, func(state *model.SessionState) {
		state.Adjustment = model.NewSessionAdjustment()
		state.SelectedStandardID = nil
	})
	s.invalidator.InvalidateTemplate(ctx.TemplateID)
	return nil
}

// --- graceful config getters ---

func (s *customStandardService) findStandard(standardID uint) *model.CustomStandard {
	standard, err := s.standardRepo.FindByID(standardID)
	if err != nil {
		return nil
	}
	return standard
}

func (s *customStandardService) GetCategoryWeight(standardID uint, categoryCode string) *float64 {
	return s.findStandard(standardID).CategoryWeight(categoryCode)
}

func (s *customStandardService) GetAspectWeight(standardID uint, aspectCode string) *float64 {
	if cfg := s.findStandard(standardID).AspectConfigFor(aspectCode); cfg != nil {
		w := cfg.Weight
		return &w
	}
	return nil
}

func (s *customStandardService) GetAspectRating(standardID uint, aspectCode string) *float64 {
	if cfg := s.findStandard(standardID).AspectConfigFor(aspectCode); cfg != nil {
		return cfg.Rating
	}
	return nil
}

func (s *customStandardService) GetSubAspectRating(standardID uint, subAspectCode string) *float64 {
	if cfg := s.findStandard(standardID).SubAspectConfigFor(subAspectCode); cfg != nil {
		r := cfg.Rating
		return &r
	}
	return nil
}

func (s *customStandardService) IsAspectActive(standardID uint, aspectCode string) bool {
	if cfg := s.findStandard(standardID).AspectConfigFor(aspectCode); cfg != nil {
		return cfg.Active
	}
	return true
}

func (s *customStandardService) IsSubAspectActive(standardID uint, subAspectCode string) bool {
	if cfg := s.findStandard(standardID).SubAspectConfigFor(subAspectCode); cfg != nil {
		return cfg.Active
	}
	return true
}

// --- validation ---

func (s *customStandardService) IsCodeUnique(institutionID uint, code string, excludeID *uint) (bool, error) {
	count, err := s.standardRepo.CountByCode(institutionID, code, excludeID)
	if err != nil {
		return false, fmt.Errorf("error checking code uniqueness: %w", err)
	}
	return count == 0, nil
}

// Validate applies the same field-keyed error-map contract as the
// adjustment validators to a standard's full config payload.
func (s *customStandardService) Validate(
	institutionID uint,
	code string,
	excludeID *uint,
	categoryWeights map[string]float64,
	aspectConfigs map[string]model.AspectConfig,
	subAspectConfigs map[string]model.SubAspectConfig,
) (map[string]string, error) {
	errs := make(map[string]string)

	if strings.TrimSpace(code) == "" {
		errs["code"] = "code is required"
	} else {
		unique, err := s.IsCodeUnique(institutionID, code, excludeID)
		if err != nil {
			return nil, err
		}
		if !unique {
			errs["code"] = fmt.Sprintf("code %q is already used in this institution", code)
		}
	}

	total := 0.0
	for _, w := range categoryWeights {
		total += w
	}
	if !floatsEqual(total, 100) {
		errs["category_weights"] = fmt.Sprintf("category weights must total 100%%, got %.2f%%", total)
	}

	for aspectCode, cfg := range aspectConfigs {
		if cfg.Rating != nil && (*cfg.Rating < MinRating-floatTolerance || *cfg.Rating > MaxRating+floatTolerance) {
			errs["aspect_configs."+aspectCode] = fmt.Sprintf("rating must be between %.0f and %.0f", MinRating, MaxRating)
		}
	}
	for subCode, cfg := range subAspectConfigs {
		if cfg.Rating < MinRating-floatTolerance || cfg.Rating > MaxRating+floatTolerance {
			errs["sub_aspect_configs."+subCode] = fmt.Sprintf("rating must be between %.0f and %.0f", MinRating, MaxRating)
		}
	}

	return errs, nil
}
