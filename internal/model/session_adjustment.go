package model

import "time"

// SessionAdjustment is the ephemeral layer-1 override set for one
// (session, template) pair. The maps are sparse: an entry exists only when
// the value differs from the baseline that applied when it was written.
// It is never persisted.
type SessionAdjustment struct {
	CategoryWeights  map[string]float64 `json:"category_weights,omitempty"`
	AspectWeights    map[string]float64 `json:"aspect_weights,omitempty"`
	AspectRatings    map[string]float64 `json:"aspect_ratings,omitempty"`
	SubAspectRatings map[string]float64 `json:"sub_aspect_ratings,omitempty"`
	ActiveAspects    map[string]bool    `json:"active_aspects,omitempty"`
	ActiveSubAspects map[string]bool    `json:"active_sub_aspects,omitempty"`
	AdjustedAt       time.Time          `json:"adjusted_at,omitempty"`
}

// NewSessionAdjustment returns an adjustment with all maps allocated.
func NewSessionAdjustment() *SessionAdjustment {
	return &SessionAdjustment{
		CategoryWeights:  make(map[string]float64),
		AspectWeights:    make(map[string]float64),
		AspectRatings:    make(map[string]float64),
		SubAspectRatings: make(map[string]float64),
		ActiveAspects:    make(map[string]bool),
		ActiveSubAspects: make(map[string]bool),
	}
}

// IsEmpty reports whether no override of any kind remains. An empty
// adjustment bucket must be deleted from the session store, so that
// "is adjusted?" checks stay truthful.
func (a *SessionAdjustment) IsEmpty() bool {
	if a == nil {
		return true
	}
	return len(a.CategoryWeights) == 0 &&
		len(a.AspectWeights) == 0 &&
		len(a.AspectRatings) == 0 &&
		len(a.SubAspectRatings) == 0 &&
		len(a.ActiveAspects) == 0 &&
		len(a.ActiveSubAspects) == 0
}

// Clone returns a deep copy; the session store hands out copies so callers
// cannot mutate stored state behind its back.
func (a *SessionAdjustment) Clone() *SessionAdjustment {
	if a == nil {
		return nil
	}
	c := NewSessionAdjustment()
	c.AdjustedAt = a.AdjustedAt
	for k, v := range a.CategoryWeights {
		c.CategoryWeights[k] = v
	}
	for k, v := range a.AspectWeights {
		c.AspectWeights[k] = v
	}
	for k, v := range a.AspectRatings {
		c.AspectRatings[k] = v
	}
	for k, v := range a.SubAspectRatings {
		c.SubAspectRatings[k] = v
	}
	for k, v := range a.ActiveAspects {
		c.ActiveAspects[k] = v
	}
	for k, v := range a.ActiveSubAspects {
		c.ActiveSubAspects[k] = v
	}
	return c
}

// SessionState is everything the session layer holds for one
// (session, template) pair: the sparse adjustment bucket plus the pointer
// at the currently selected custom standard.
type SessionState struct {
	Adjustment         *SessionAdjustment `json:"adjustment,omitempty"`
	SelectedStandardID *uint              `json:"selected_standard_id,omitempty"`
}

// IsEmpty reports whether the state carries neither adjustments nor a
// selection and can be dropped from the store.
func (s *SessionState) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Adjustment.IsEmpty() && s.SelectedStandardID == nil
}
