package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/quantumhc/assessment/internal/cache"
	"github.com/quantumhc/assessment/internal/dto"
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/repository"
	"github.com/quantumhc/assessment/internal/session"
	"github.com/rs/zerolog/log"
)

// RankingService produces ordered, gap-annotated participant rankings
// under the currently resolved configuration. The expensive aggregation is
// cached tolerance-free; tolerance is applied on every read.
type RankingService interface {
	GetRankings(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64) ([]dto.RankingRowDTO, error)
	GetRankingsPage(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64, page, perPage int) (*dto.RankingPageDTO, error)
	GetParticipantRank(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64, participantID uint) (*dto.ParticipantRankDTO, error)
	GetCombinedRankings(ctx session.Context, eventID, positionID uint, tolerance float64) ([]dto.CombinedRankingRowDTO, error)
	GetParticipantCombinedRank(ctx session.Context, eventID, positionID uint, tolerance float64, participantID uint) (*dto.CombinedParticipantRankDTO, error)
	CalculateAdjustedStandards(ctx session.Context, categoryCode string, aspectIDs []uint, tolerance float64) (dto.StandardValueDTO, error)
	GetPassingSummary(rows []dto.RankingRowDTO) dto.PassingSummaryDTO
	GetConclusionSummary(rows []dto.RankingRowDTO) map[string]int
}

type rankingService struct {
	resolver        StandardResolverService
	participantRepo repository.ParticipantRepository
	assessmentRepo  repository.AssessmentRepository
	sessions        session.Store
	cache           cache.RankingCache
	classifier      ConclusionClassifier
}

func NewRankingService(
	resolver StandardResolverService,
	participantRepo repository.ParticipantRepository,
	assessmentRepo repository.AssessmentRepository,
	sessions session.Store,
	rankingCache cache.RankingCache,
	classifier ConclusionClassifier,
) RankingService {
	return &rankingService{
		resolver:        resolver,
		participantRepo: participantRepo,
		assessmentRepo:  assessmentRepo,
		sessions:        sessions,
		cache:           rankingCache,
		classifier:      classifier,
	}
}

// cacheInvalidator adapts the ranking cache to the resolver's invalidation
// hook.
type cacheInvalidator struct {
	cache cache.RankingCache
}

func NewCacheInvalidator(rankingCache cache.RankingCache) CacheInvalidator {
	return &cacheInvalidator{cache: rankingCache}
}

func (i *cacheInvalidator) InvalidateTemplate(templateID uint) {
	i.cache.Invalidate(context.Background(), templateID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// baseRankings computes (or fetches) the tolerance-independent rows for
// one category, in participant-name order. Empty active-aspect sets and
// empty participant pools produce an empty result, not an error.
func (s *rankingService) baseRankings(ctx session.Context, eventID, positionID uint, categoryCode string) ([]cache.BaseRow, error) {
	aspects, err := s.resolver.ResolveCategoryAspects(ctx, categoryCode)
	if err != nil {
		return nil, err
	}
	if len(aspects) == 0 {
		return nil, nil
	}

	participants, err := s.participantRepo.FindByEventAndPosition(eventID, positionID)
	if err != nil {
		return nil, fmt.Errorf("error fetching participants: %w", err)
	}
	if len(participants) == 0 {
		return nil, nil
	}

	state := s.sessions.Get(ctx)
	var selectedID *uint
	var adj *model.SessionAdjustment
	if state != nil {
		selectedID = state.SelectedStandardID
		adj = state.Adjustment
	}
	key := cache.BuildKey(eventID, positionID, ctx.TemplateID, categoryCode, selectedID, adj)

	reqCtx := context.Background()
	if rows, ok := s.cache.Get(reqCtx, key); ok {
		return rows, nil
	}

	rows, err := s.computeBaseRankings(participants, aspects)
	if err != nil {
		return nil, err
	}
	s.cache.Put(reqCtx, key, rows)
	log.Debug().Str("key", key.String()).Int("rows", len(rows)).Msg("Ranking base computed and cached")
	return rows, nil
}

func (s *rankingService) computeBaseRankings(participants []model.Participant, aspects []ResolvedAspect) ([]cache.BaseRow, error) {
	participantIDs := make([]uint, 0, len(participants))
	for _, p := range participants {
		participantIDs = append(participantIDs, p.ID)
	}

	var directAspectIDs, activeSubIDs []uint
	for _, ra := range aspects {
		if ra.Aspect.HasSubAspects() {
			for _, sub := range ra.ActiveSubAspects {
				activeSubIDs = append(activeSubIDs, sub.ID)
			}
		} else {
			directAspectIDs = append(directAspectIDs, ra.Aspect.ID)
		}
	}

	aspectRatings, err := s.assessmentRepo.AspectRatings(participantIDs, directAspectIDs)
	if err != nil {
		return nil, fmt.Errorf("error fetching aspect assessments: %w", err)
	}
	subRatings, err := s.assessmentRepo.SubAspectRatings(participantIDs, activeSubIDs)
	if err != nil {
		return nil, fmt.Errorf("error fetching sub-aspect assessments: %w", err)
	}

	// Standard aggregates are identical for every participant; both sides
	// are built from the same resolved active set, so gap comparisons stay
	// like for like.
	standardRatingSum := 0.0
	standardScore := 0.0
	for _, ra := range aspects {
		standardRatingSum += ra.StandardRating
		standardScore += ra.StandardRating * ra.Weight / 100
	}
	standardRating := standardRatingSum / float64(len(aspects))

	rows := make([]cache.BaseRow, 0, len(participants))
	for _, p := range participants {
		ratingSum := 0.0
		score := 0.0
		for _, ra := range aspects {
			rating := s.individualAspectRating(p.ID, ra, aspectRatings, subRatings)
			ratingSum += rating
			score += rating * ra.Weight / 100
		}
		rows = append(rows, cache.BaseRow{
			ParticipantID:    p.ID,
			ParticipantName:  p.Name,
			IndividualRating: round2(ratingSum / float64(len(aspects))),
			IndividualScore:  round2(score),
			StandardRating:   round2(standardRating),
			StandardScore:    round2(standardScore),
		})
	}
	return rows, nil
}

// individualAspectRating derives one participant's effective rating for
// one aspect. Aspects with sub-aspects are always freshly averaged over
// the currently active sub-aspect set - never read from a stored
// aggregate - so active/inactive toggles recalculate fairly.
func (s *rankingService) individualAspectRating(
	participantID uint,
	ra ResolvedAspect,
	aspectRatings map[uint]map[uint]float64,
	subRatings map[uint]map[uint]float64,
) float64 {
	if !ra.Aspect.HasSubAspects() {
		return aspectRatings[participantID][ra.Aspect.ID]
	}
	sum := 0.0
	n := 0
	for _, sub := range ra.ActiveSubAspects {
		if stored, ok := subRatings[participantID][sub.ID]; ok {
			sum += stored
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// applyTolerance turns base rows into full ranking rows: the standard side
// is discounted by tolerance percent, gaps and percentage derived, rows
// sorted by individual score (ties broken by name) and ranked 1-based.
func (s *rankingService) applyTolerance(rows []cache.BaseRow, tolerance float64) []dto.RankingRowDTO {
	factor := 1 - tolerance/100
	out := make([]dto.RankingRowDTO, 0, len(rows))
	for _, row := range rows {
		adjustedRating := round2(row.StandardRating * factor)
		adjustedScore := round2(row.StandardScore * factor)
		percentage := 0.0
		if adjustedScore > floatTolerance {
			percentage = round2(row.IndividualScore / adjustedScore * 100)
		}
		gapScore := round2(row.IndividualScore - adjustedScore)
		out = append(out, dto.RankingRowDTO{
			ParticipantID:          row.ParticipantID,
			ParticipantName:        row.ParticipantName,
			IndividualRating:       row.IndividualRating,
			IndividualScore:        row.IndividualScore,
			OriginalStandardRating: row.StandardRating,
			OriginalStandardScore:  row.StandardScore,
			AdjustedStandardRating: adjustedRating,
			AdjustedStandardScore:  adjustedScore,
			OriginalGapRating:      round2(row.IndividualRating - row.StandardRating),
			OriginalGapScore:       round2(row.IndividualScore - row.StandardScore),
			AdjustedGapRating:      round2(row.IndividualRating - adjustedRating),
			AdjustedGapScore:       gapScore,
			Percentage:             percentage,
			Conclusion:             s.classifier.Classify(gapScore, percentage),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IndividualScore != out[j].IndividualScore {
			return out[i].IndividualScore > out[j].IndividualScore
		}
		return out[i].ParticipantName < out[j].ParticipantName
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (s *rankingService) GetRankings(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64) ([]dto.RankingRowDTO, error) {
	base, err := s.baseRankings(ctx, eventID, positionID, categoryCode)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return []dto.RankingRowDTO{}, nil
	}
	return s.applyTolerance(base, tolerance), nil
}

// GetRankingsPage slices one page out of the fully ranked set. The sort
// always runs over the whole pool; only the window is returned.
func (s *rankingService) GetRankingsPage(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64, page, perPage int) (*dto.RankingPageDTO, error) {
	rows, err := s.GetRankings(ctx, eventID, positionID, categoryCode, tolerance)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	total := len(rows)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &dto.RankingPageDTO{
		Rows:       rows[start:end],
		Page:       page,
		PerPage:    perPage,
		TotalRows:  total,
		TotalPages: totalPages,
	}, nil
}

// GetParticipantRank returns one participant's row plus the pool size, or
// nil when the participant is absent or the ranking is empty.
func (s *rankingService) GetParticipantRank(ctx session.Context, eventID, positionID uint, categoryCode string, tolerance float64, participantID uint) (*dto.ParticipantRankDTO, error) {
	rows, err := s.GetRankings(ctx, eventID, positionID, categoryCode, tolerance)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ParticipantID == participantID {
			return &dto.ParticipantRankDTO{RankingRowDTO: row, Total: len(rows)}, nil
		}
	}
	return nil, nil
}

// GetCombinedRankings merges the potensi and kompetensi rankings weighted
// by the resolved category weights. Both categories must produce rows;
// otherwise the combined ranking is empty. A 0/100 weight split is legal.
func (s *rankingService) GetCombinedRankings(ctx session.Context, eventID, positionID uint, tolerance float64) ([]dto.CombinedRankingRowDTO, error) {
	basePotensi, err := s.baseRankings(ctx, eventID, positionID, model.CategoryPotensi)
	if err != nil {
		return nil, err
	}
	baseKompetensi, err := s.baseRankings(ctx, eventID, positionID, model.CategoryKompetensi)
	if err != nil {
		return nil, err
	}
	if len(basePotensi) == 0 || len(baseKompetensi) == 0 {
		return []dto.CombinedRankingRowDTO{}, nil
	}

	potensiWeight, err := s.resolver.GetCategoryWeight(ctx, model.CategoryPotensi)
	if err != nil {
		return nil, err
	}
	kompetensiWeight, err := s.resolver.GetCategoryWeight(ctx, model.CategoryKompetensi)
	if err != nil {
		return nil, err
	}

	kompetensiByID := make(map[uint]cache.BaseRow, len(baseKompetensi))
	for _, row := range baseKompetensi {
		kompetensiByID[row.ParticipantID] = row
	}

	factor := 1 - tolerance/100
	out := make([]dto.CombinedRankingRowDTO, 0, len(basePotensi))
	for _, p := range basePotensi {
		k, ok := kompetensiByID[p.ParticipantID]
		if !ok {
			continue
		}
		totalIndividual := round2(p.IndividualScore*potensiWeight/100 + k.IndividualScore*kompetensiWeight/100)
		totalOriginalStandard := round2(p.StandardScore*potensiWeight/100 + k.StandardScore*kompetensiWeight/100)
		totalStandard := round2(totalOriginalStandard * factor)
		totalGap := round2(totalIndividual - totalStandard)
		percentage := 0.0
		if totalStandard > floatTolerance {
			percentage = round2(totalIndividual / totalStandard * 100)
		}
		out = append(out, dto.CombinedRankingRowDTO{
			ParticipantID:              p.ParticipantID,
			ParticipantName:            p.ParticipantName,
			PotensiWeight:              potensiWeight,
			KompetensiWeight:           kompetensiWeight,
			PotensiScore:               p.IndividualScore,
			KompetensiScore:            k.IndividualScore,
			TotalIndividualScore:       totalIndividual,
			TotalStandardScore:         totalStandard,
			TotalOriginalStandardScore: totalOriginalStandard,
			TotalGapScore:              totalGap,
			TotalOriginalGapScore:      round2(totalIndividual - totalOriginalStandard),
			Percentage:                 percentage,
			Conclusion:                 s.classifier.Classify(totalGap, percentage),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalIndividualScore != out[j].TotalIndividualScore {
			return out[i].TotalIndividualScore > out[j].TotalIndividualScore
		}
		return out[i].ParticipantName < out[j].ParticipantName
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (s *rankingService) GetParticipantCombinedRank(ctx session.Context, eventID, positionID uint, tolerance float64, participantID uint) (*dto.CombinedParticipantRankDTO, error) {
	rows, err := s.GetCombinedRankings(ctx, eventID, positionID, tolerance)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ParticipantID == participantID {
			return &dto.CombinedParticipantRankDTO{CombinedRankingRowDTO: row, Total: len(rows)}, nil
		}
	}
	return nil, nil
}

// CalculateAdjustedStandards computes just the aggregate standard rating
// and score for an explicit aspect set, tolerance applied, both rounded to
// two decimals. An empty set yields (0, 0).
func (s *rankingService) CalculateAdjustedStandards(ctx session.Context, categoryCode string, aspectIDs []uint, tolerance float64) (dto.StandardValueDTO, error) {
	if len(aspectIDs) == 0 {
		return dto.StandardValueDTO{}, nil
	}
	aspects, err := s.resolver.ResolveAspectsByID(ctx, aspectIDs)
	if err != nil {
		return dto.StandardValueDTO{}, err
	}
	if len(aspects) == 0 {
		log.Warn().Str("category", categoryCode).Msg("CalculateAdjustedStandards: no known aspects in id set")
		return dto.StandardValueDTO{}, nil
	}

	factor := 1 - tolerance/100
	ratingSum := 0.0
	score := 0.0
	for _, ra := range aspects {
		ratingSum += ra.StandardRating
		score += ra.StandardRating * ra.Weight / 100
	}
	return dto.StandardValueDTO{
		Rating: round2(ratingSum / float64(len(aspects)) * factor),
		Score:  round2(score * factor),
	}, nil
}

// GetPassingSummary counts rows at or above the adjusted standard. Pure
// fold over already-computed rows; no storage access.
func (s *rankingService) GetPassingSummary(rows []dto.RankingRowDTO) dto.PassingSummaryDTO {
	summary := dto.PassingSummaryDTO{Total: len(rows)}
	for _, row := range rows {
		if row.AdjustedGapScore >= -floatTolerance {
			summary.Passing++
		}
	}
	if summary.Total > 0 {
		summary.PassingPercentage = round2(float64(summary.Passing) / float64(summary.Total) * 100)
	}
	return summary
}

// GetConclusionSummary counts rows per conclusion label, including zero
// counts for labels with no members.
func (s *rankingService) GetConclusionSummary(rows []dto.RankingRowDTO) map[string]int {
	summary := make(map[string]int)
	for _, label := range s.classifier.Labels() {
		summary[label] = 0
	}
	for _, row := range rows {
		summary[row.Conclusion]++
	}
	return summary
}
