package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/service"
	"github.com/rs/zerolog/log"
)

type CustomStandardController struct {
	standardService service.CustomStandardService
}

func NewCustomStandardController(standardService service.CustomStandardService) *CustomStandardController {
	return &CustomStandardController{standardService: standardService}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// CreateStandard godoc
// @Summary (Admin) Create a custom standard
// @Description Creates an institution-owned override set for one template. Validation failures are returned as a field-keyed error map.
// @Tags Admin - Custom Standards
// @Accept json
// @Produce json
// @Param standard body dto.CustomStandardCreateDTO true "Custom standard payload"
// @Success 201 {object} dto.CustomStandardResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ValidationErrorResponse
// @Router /admin/standards [post]
func (c *CustomStandardController) CreateStandard(ctx *gin.Context) {
	var req dto.CustomStandardCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}

	errs, err := c.standardService.Validate(req.InstitutionID, req.Code, nil, req.CategoryWeights, req.AspectConfigs, req.SubAspectConfigs)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Validation failed", Details: []string{err.Error()}})
		return
	}
	if len(errs) > 0 {
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Message: "Custom standard is invalid", Errors: errs})
		return
	}

	resp, err := c.standardService.Create(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateStandard: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create custom standard", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateStandard godoc
// @Summary (Admin) Update a custom standard
// @Tags Admin - Custom Standards
// @Accept json
// @Produce json
// @Param standard_id path int true "Custom standard ID"
// @Param standard body dto.CustomStandardUpdateDTO true "Custom standard payload"
// @Success 200 {object} dto.CustomStandardResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ValidationErrorResponse
// @Router /admin/standards/{standard_id} [put]
func (c *CustomStandardController) UpdateStandard(ctx *gin.Context) {
	id, ok := parseID(ctx, "standard_id")
	if !ok {
		return
	}
	var req dto.CustomStandardUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}

	existing, err := c.standardService.GetByID(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Custom standard not found"})
		return
	}

	errs, err := c.standardService.Validate(existing.InstitutionID, req.Code, &id, req.CategoryWeights, req.AspectConfigs, req.SubAspectConfigs)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Validation failed", Details: []string{err.Error()}})
		return
	}
	if len(errs) > 0 {
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Message: "Custom standard is invalid", Errors: errs})
		return
	}

	resp, err := c.standardService.Update(id, req)
	if err != nil {
		log.Error().Err(err).Uint("standardID", id).Msg("Admin UpdateStandard: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to update custom standard", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteStandard godoc
// @Summary (Admin) Delete a custom standard
// @Tags Admin - Custom Standards
// @Produce json
// @Param standard_id path int true "Custom standard ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/standards/{standard_id} [delete]
func (c *CustomStandardController) DeleteStandard(ctx *gin.Context) {
	id, ok := parseID(ctx, "standard_id")
	if !ok {
		return
	}
	if err := c.standardService.Delete(id); err != nil {
		log.Error().Err(err).Uint("standardID", id).Msg("Admin DeleteStandard: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to delete custom standard", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Custom standard deleted"})
}

// ListStandards godoc
// @Summary (Admin) List an institution's custom standards for a template
// @Tags Admin - Custom Standards
// @Produce json
// @Param institution_id query int true "Institution ID"
// @Param template_id query int true "Template ID"
// @Success 200 {array} dto.CustomStandardResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/standards [get]
func (c *CustomStandardController) ListStandards(ctx *gin.Context) {
	institutionID, err := strconv.ParseUint(ctx.Query("institution_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid institution_id"})
		return
	}
	templateID, err := strconv.ParseUint(ctx.Query("template_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid template_id"})
		return
	}

	standards, err := c.standardService.GetForInstitution(uint(institutionID), uint(templateID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list custom standards", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, standards)
}

// GetTemplateDefaults godoc
// @Summary (Admin) Get the default standard config for a template
// @Description Returns the CustomStandard-shaped config seeded from quantum defaults, for prefilling the standard form.
// @Tags Admin - Custom Standards
// @Produce json
// @Param template_id path int true "Template ID"
// @Success 200 {object} dto.TemplateDefaultsDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/standards/template-defaults/{template_id} [get]
func (c *CustomStandardController) GetTemplateDefaults(ctx *gin.Context) {
	templateID, ok := parseID(ctx, "template_id")
	if !ok {
		return
	}
	defaults, err := c.standardService.GetTemplateDefaults(templateID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Template not found", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, defaults)
}

// GetAvailableTemplates godoc
// @Summary (Admin) List templates available to an institution
// @Description Only templates the institution has position formations against are returned.
// @Tags Admin - Custom Standards
// @Produce json
// @Param institution_id query int true "Institution ID"
// @Success 200 {array} dto.TemplateSummaryDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/templates/available [get]
func (c *CustomStandardController) GetAvailableTemplates(ctx *gin.Context) {
	institutionID, err := strconv.ParseUint(ctx.Query("institution_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid institution_id"})
		return
	}
	templates, err := c.standardService.GetAvailableTemplates(uint(institutionID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list templates", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, templates)
}
