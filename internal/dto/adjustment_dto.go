package dto

// SaveWeightDTO saves one category or aspect weight override.
type SaveWeightDTO struct {
	Code   string  `json:"code" binding:"required"`
	Weight float64 `json:"weight" binding:"min=0,max=100"`
}

// SaveRatingDTO saves one aspect or sub-aspect rating override.
type SaveRatingDTO struct {
	Code   string  `json:"code" binding:"required"`
	Rating float64 `json:"rating" binding:"required"`
}

type SetActiveDTO struct {
	Code   string `json:"code" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

// BothCategoryWeightsDTO carries the paired category weight save; the two
// weights must sum to 100 or the save is rejected outright.
type BothCategoryWeightsDTO struct {
	CodeA   string  `json:"code_a" binding:"required"`
	WeightA float64 `json:"weight_a" binding:"min=0,max=100"`
	CodeB   string  `json:"code_b" binding:"required"`
	WeightB float64 `json:"weight_b" binding:"min=0,max=100"`
}

// BulkAdjustmentsDTO is a sparse multi-field adjustment payload, used both
// for form submissions (filtered against baseline) and for restoring a
// known-good state (written through as-is).
type BulkAdjustmentsDTO struct {
	CategoryWeights  map[string]float64 `json:"category_weights"`
	AspectWeights    map[string]float64 `json:"aspect_weights"`
	AspectRatings    map[string]float64 `json:"aspect_ratings"`
	SubAspectRatings map[string]float64 `json:"sub_aspect_ratings"`
	ActiveAspects    map[string]bool    `json:"active_aspects"`
	ActiveSubAspects map[string]bool    `json:"active_sub_aspects"`
}

// SelectStandardDTO selects a custom standard for the session. StandardID
// accepts "null" or "" as equivalent to no selection.
type SelectStandardDTO struct {
	StandardID string `json:"standard_id"`
}

// --- Original (quantum) template structure, overrides bypassed ---

type SubAspectDataDTO struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	StandardRating float64 `json:"standard_rating"`
	OrderNumber    int     `json:"order_number"`
}

type AspectDataDTO struct {
	Code             string             `json:"code"`
	Name             string             `json:"name"`
	WeightPercentage float64            `json:"weight_percentage"`
	StandardRating   *float64           `json:"standard_rating,omitempty"`
	ComputedRating   float64            `json:"computed_rating"`
	OrderNumber      int                `json:"order_number"`
	SubAspects       []SubAspectDataDTO `json:"sub_aspects,omitempty"`
}

type CategoryDataDTO struct {
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	WeightPercentage float64         `json:"weight_percentage"`
	OrderNumber      int             `json:"order_number"`
	Aspects          []AspectDataDTO `json:"aspects"`
}

type TemplateDataDTO struct {
	TemplateID uint              `json:"template_id"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	Categories []CategoryDataDTO `json:"categories"`
}
