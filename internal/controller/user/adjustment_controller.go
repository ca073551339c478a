package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/service"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
)

// SessionHeader carries the per-user session identity; auth transport is
// out of scope for this core.
const SessionHeader = "X-Session-ID"

type AdjustmentController struct {
	resolver        service.StandardResolverService
	standardService service.CustomStandardService
}

func NewAdjustmentController(resolver service.StandardResolverService, standardService service.CustomStandardService) *AdjustmentController {
	return &AdjustmentController{resolver: resolver, standardService: standardService}
}

// sessionContext builds the resolver scope from the session header and the
// template_id path param. Writes a 400 and returns false on bad input.
func sessionContext(ctx *gin.Context) (session.Context, bool) {
	sessionID := ctx.GetHeader(SessionHeader)
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing " + SessionHeader + " header"})
		return session.Context{}, false
	}
	templateID, err := strconv.ParseUint(ctx.Param("template_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid template_id format"})
		return session.Context{}, false
	}
	return session.Context{SessionID: sessionID, TemplateID: uint(templateID)}, true
}

func bulkDTOToAdjustment(req dto.BulkAdjustmentsDTO) *model.SessionAdjustment {
	adj := model.NewSessionAdjustment()
	for k, v := range req.CategoryWeights {
		adj.CategoryWeights[k] = v
	}
	for k, v := range req.AspectWeights {
		adj.AspectWeights[k] = v
	}
	for k, v := range req.AspectRatings {
		adj.AspectRatings[k] = v
	}
	for k, v := range req.SubAspectRatings {
		adj.SubAspectRatings[k] = v
	}
	for k, v := range req.ActiveAspects {
		adj.ActiveAspects[k] = v
	}
	for k, v := range req.ActiveSubAspects {
		adj.ActiveSubAspects[k] = v
	}
	return adj
}

// SaveCategoryWeight godoc
// @Summary Save a session category-weight override
// @Tags Adjustments
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session ID"
// @Param template_id path int true "Template ID"
// @Param payload body dto.SaveWeightDTO true "Weight payload"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /templates/{template_id}/adjustments/category-weight [post]
func (c *AdjustmentController) SaveCategoryWeight(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SaveWeightDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveCategoryWeight(sctx, req.Code, req.Weight); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save category weight", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Category weight saved"})
}

// SaveBothCategoryWeights godoc
// @Summary Save both category weights atomically
// @Description Fails outright when the two weights do not sum to 100.
// @Tags Adjustments
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session ID"
// @Param template_id path int true "Template ID"
// @Param payload body dto.BothCategoryWeightsDTO true "Weight pair"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /templates/{template_id}/adjustments/category-weights [post]
func (c *AdjustmentController) SaveBothCategoryWeights(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.BothCategoryWeightsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveBothCategoryWeights(sctx, req.CodeA, req.WeightA, req.CodeB, req.WeightB); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to save category weights", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Category weights saved"})
}

func (c *AdjustmentController) SaveAspectWeight(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SaveWeightDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveAspectWeight(sctx, req.Code, req.Weight); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save aspect weight", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Aspect weight saved"})
}

func (c *AdjustmentController) SaveAspectRating(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SaveRatingDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveAspectRating(sctx, req.Code, req.Rating); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save aspect rating", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Aspect rating saved"})
}

func (c *AdjustmentController) SaveSubAspectRating(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SaveRatingDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveSubAspectRating(sctx, req.Code, req.Rating); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save sub-aspect rating", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Sub-aspect rating saved"})
}

func (c *AdjustmentController) SetAspectActive(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SetActiveDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SetAspectActive(sctx, req.Code, *req.Active); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to toggle aspect", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Aspect active state saved"})
}

func (c *AdjustmentController) SetSubAspectActive(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SetActiveDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SetSubAspectActive(sctx, req.Code, *req.Active); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to toggle sub-aspect", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Sub-aspect active state saved"})
}

// SaveBulkAdjustments writes every provided key without baseline
// filtering; used to restore a saved adjustment state.
func (c *AdjustmentController) SaveBulkAdjustments(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.BulkAdjustmentsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.resolver.SaveBulkAdjustments(sctx, bulkDTOToAdjustment(req)); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save adjustments", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Adjustments saved"})
}

// SaveBulkSelection persists a multi-field form submission with the same
// baseline filtering as single-key saves, after soft validation.
func (c *AdjustmentController) SaveBulkSelection(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.BulkAdjustmentsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	adj := bulkDTOToAdjustment(req)

	errs, err := c.resolver.ValidateSelection(sctx, adj)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Validation failed", Details: []string{err.Error()}})
		return
	}
	if len(errs) > 0 {
		ctx.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Message: "Adjustments are invalid", Errors: errs})
		return
	}

	if err := c.resolver.SaveBulkSelection(sctx, adj); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save adjustments", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Adjustments saved"})
}

func (c *AdjustmentController) ResetAdjustments(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	if err := c.resolver.ResetAdjustments(sctx); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to reset adjustments", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Adjustments reset"})
}

func (c *AdjustmentController) ResetCategoryAdjustments(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	categoryCode := ctx.Param("category_code")
	if err := c.resolver.ResetCategoryAdjustments(sctx, categoryCode); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to reset category adjustments", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Category adjustments reset"})
}

func (c *AdjustmentController) ResetCategoryWeights(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	if err := c.resolver.ResetCategoryWeights(sctx); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to reset category weights", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Category weights reset"})
}

// GetAdjustments returns the session's current sparse override maps.
func (c *AdjustmentController) GetAdjustments(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, c.resolver.GetAdjustments(sctx))
}

// GetOriginalTemplateData godoc
// @Summary Get the pure quantum-default template structure
// @Description Bypasses every override; used for "no customization" displays.
// @Tags Adjustments
// @Produce json
// @Param template_id path int true "Template ID"
// @Success 200 {object} dto.TemplateDataDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /templates/{template_id}/original [get]
func (c *AdjustmentController) GetOriginalTemplateData(ctx *gin.Context) {
	templateID, err := strconv.ParseUint(ctx.Param("template_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid template_id format"})
		return
	}
	data, err := c.resolver.GetOriginalTemplateData(uint(templateID))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Template not found", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, data)
}

// SelectStandard points the session at a custom standard; "null" or empty
// clears the selection. Either way, in-progress adjustments are discarded.
func (c *AdjustmentController) SelectStandard(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req dto.SelectStandardDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	if err := c.standardService.Select(sctx, req.StandardID); err != nil {
		log.Warn().Err(err).Str("raw", req.StandardID).Msg("SelectStandard: rejected input")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid standard id", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Standard selection saved"})
}

func (c *AdjustmentController) GetSelectedStandard(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	standard := c.standardService.GetSelectedStandard(sctx)
	if standard == nil {
		ctx.JSON(http.StatusOK, gin.H{"selected": nil})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"selected": standard})
}

func (c *AdjustmentController) ClearSelection(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	if err := c.standardService.ClearSelection(sctx); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to clear selection", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Selection cleared"})
}
