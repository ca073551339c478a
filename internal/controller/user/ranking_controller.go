package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/service"
	"github.com/rs/zerolog/log"
)

type RankingController struct {
	rankingService service.RankingService
}

func NewRankingController(rankingService service.RankingService) *RankingController {
	return &RankingController{rankingService: rankingService}
}

type rankingQuery struct {
	eventID    uint
	positionID uint
	tolerance  float64
	page       int
	perPage    int
}

func parseRankingQuery(ctx *gin.Context) (rankingQuery, bool) {
	eventID, err := strconv.ParseUint(ctx.Query("event_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid event_id"})
		return rankingQuery{}, false
	}
	positionID, err := strconv.ParseUint(ctx.Query("position_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid position_id"})
		return rankingQuery{}, false
	}

	q := rankingQuery{eventID: uint(eventID), positionID: uint(positionID), page: 1, perPage: 25}
	if raw := ctx.Query("tolerance"); raw != "" {
		q.tolerance, err = strconv.ParseFloat(raw, 64)
		if err != nil || q.tolerance < 0 || q.tolerance > 100 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid tolerance, expected 0-100"})
			return rankingQuery{}, false
		}
	}
	if raw := ctx.Query("page"); raw != "" {
		if q.page, err = strconv.Atoi(raw); err != nil || q.page < 1 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid page"})
			return rankingQuery{}, false
		}
	}
	if raw := ctx.Query("per_page"); raw != "" {
		if q.perPage, err = strconv.Atoi(raw); err != nil || q.perPage < 1 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid per_page"})
			return rankingQuery{}, false
		}
	}
	return q, true
}

// GetRankings godoc
// @Summary Get one page of a category ranking
// @Description Ranks participants by individual score under the currently resolved configuration. Tolerance discounts the standard side and is applied on every read.
// @Tags Rankings
// @Produce json
// @Param X-Session-ID header string true "Session ID"
// @Param template_id path int true "Template ID"
// @Param category_code path string true "Category code (potensi or kompetensi)"
// @Param event_id query int true "Assessment event ID"
// @Param position_id query int true "Position formation ID"
// @Param tolerance query number false "Tolerance percent (0-100)"
// @Param page query int false "Page (1-based)"
// @Param per_page query int false "Rows per page"
// @Success 200 {object} dto.RankingPageDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /templates/{template_id}/rankings/{category_code} [get]
func (c *RankingController) GetRankings(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	q, ok := parseRankingQuery(ctx)
	if !ok {
		return
	}
	page, err := c.rankingService.GetRankingsPage(sctx, q.eventID, q.positionID, ctx.Param("category_code"), q.tolerance, q.page, q.perPage)
	if err != nil {
		log.Error().Err(err).Msg("GetRankings: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute rankings", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GetCombinedRankings godoc
// @Summary Get the combined potensi+kompetensi ranking
// @Tags Rankings
// @Produce json
// @Param X-Session-ID header string true "Session ID"
// @Param template_id path int true "Template ID"
// @Param event_id query int true "Assessment event ID"
// @Param position_id query int true "Position formation ID"
// @Param tolerance query number false "Tolerance percent (0-100)"
// @Success 200 {array} dto.CombinedRankingRowDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /templates/{template_id}/rankings-combined [get]
func (c *RankingController) GetCombinedRankings(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	q, ok := parseRankingQuery(ctx)
	if !ok {
		return
	}
	rows, err := c.rankingService.GetCombinedRankings(sctx, q.eventID, q.positionID, q.tolerance)
	if err != nil {
		log.Error().Err(err).Msg("GetCombinedRankings: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute combined rankings", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// GetParticipantRank returns one participant's row and the pool size, 404
// when the participant is not in the ranking.
func (c *RankingController) GetParticipantRank(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	q, ok := parseRankingQuery(ctx)
	if !ok {
		return
	}
	participantID, err := strconv.ParseUint(ctx.Param("participant_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid participant_id"})
		return
	}
	row, err := c.rankingService.GetParticipantRank(sctx, q.eventID, q.positionID, ctx.Param("category_code"), q.tolerance, uint(participantID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute rank", Details: []string{err.Error()}})
		return
	}
	if row == nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Participant not in ranking"})
		return
	}
	ctx.JSON(http.StatusOK, row)
}

func (c *RankingController) GetParticipantCombinedRank(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	q, ok := parseRankingQuery(ctx)
	if !ok {
		return
	}
	participantID, err := strconv.ParseUint(ctx.Param("participant_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid participant_id"})
		return
	}
	row, err := c.rankingService.GetParticipantCombinedRank(sctx, q.eventID, q.positionID, q.tolerance, uint(participantID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute combined rank", Details: []string{err.Error()}})
		return
	}
	if row == nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Participant not in ranking"})
		return
	}
	ctx.JSON(http.StatusOK, row)
}

// GetSummaries folds the full ranking into passing and conclusion
// summaries in a single response.
func (c *RankingController) GetSummaries(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	q, ok := parseRankingQuery(ctx)
	if !ok {
		return
	}
	rows, err := c.rankingService.GetRankings(sctx, q.eventID, q.positionID, ctx.Param("category_code"), q.tolerance)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute summaries", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"passing":     c.rankingService.GetPassingSummary(rows),
		"conclusions": c.rankingService.GetConclusionSummary(rows),
	})
}

// CalculateStandards recomputes just the aggregate standard for an
// explicit active-aspect id set.
func (c *RankingController) CalculateStandards(ctx *gin.Context) {
	sctx, ok := sessionContext(ctx)
	if !ok {
		return
	}
	var req struct {
		CategoryCode string  `json:"category_code" binding:"required"`
		AspectIDs    []uint  `json:"aspect_ids"`
		Tolerance    float64 `json:"tolerance"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request payload", Details: []string{err.Error()}})
		return
	}
	value, err := c.rankingService.CalculateAdjustedStandards(sctx, req.CategoryCode, req.AspectIDs, req.Tolerance)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to compute standards", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, value)
}
