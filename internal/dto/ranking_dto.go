package dto

// RankingRowDTO is one participant's row in a single-category ranking.
// "Original" values carry no tolerance; "Adjusted" values have the
// tolerance discount applied to the standard side.
type RankingRowDTO struct {
	Rank                   int     `json:"rank"`
	ParticipantID          uint    `json:"participant_id"`
	ParticipantName        string  `json:"participant_name"`
	IndividualRating       float64 `json:"individual_rating"`
	IndividualScore        float64 `json:"individual_score"`
	OriginalStandardRating float64 `json:"original_standard_rating"`
	OriginalStandardScore  float64 `json:"original_standard_score"`
	AdjustedStandardRating float64 `json:"adjusted_standard_rating"`
	AdjustedStandardScore  float64 `json:"adjusted_standard_score"`
	OriginalGapRating      float64 `json:"original_gap_rating"`
	OriginalGapScore       float64 `json:"original_gap_score"`
	AdjustedGapRating      float64 `json:"adjusted_gap_rating"`
	AdjustedGapScore       float64 `json:"adjusted_gap_score"`
	Percentage             float64 `json:"percentage"`
	Conclusion             string  `json:"conclusion"`
}

type RankingPageDTO struct {
	Rows       []RankingRowDTO `json:"rows"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalRows  int             `json:"total_rows"`
	TotalPages int             `json:"total_pages"`
}

type ParticipantRankDTO struct {
	RankingRowDTO
	Total int `json:"total"`
}

// CombinedRankingRowDTO combines the potensi and kompetensi rankings,
// weighted by the resolved category weights.
type CombinedRankingRowDTO struct {
	Rank                       int     `json:"rank"`
	ParticipantID              uint    `json:"participant_id"`
	ParticipantName            string  `json:"participant_name"`
	PotensiWeight              float64 `json:"potensi_weight"`
	KompetensiWeight           float64 `json:"kompetensi_weight"`
	PotensiScore               float64 `json:"potensi_score"`
	KompetensiScore            float64 `json:"kompetensi_score"`
	TotalIndividualScore       float64 `json:"total_individual_score"`
	TotalStandardScore         float64 `json:"total_standard_score"`
	TotalOriginalStandardScore float64 `json:"total_original_standard_score"`
	TotalGapScore              float64 `json:"total_gap_score"`
	TotalOriginalGapScore      float64 `json:"total_original_gap_score"`
	Percentage                 float64 `json:"percentage"`
	Conclusion                 string  `json:"conclusion"`
}

type CombinedParticipantRankDTO struct {
	CombinedRankingRowDTO
	Total int `json:"total"`
}

// StandardValueDTO is the aggregate standard for one active-aspect set,
// rounded to two decimals.
type StandardValueDTO struct {
	Rating float64 `json:"rating"`
	Score  float64 `json:"score"`
}

type PassingSummaryDTO struct {
	Total             int     `json:"total"`
	Passing           int     `json:"passing"`
	PassingPercentage float64 `json:"passing_percentage"`
}
