package service

// Conclusion labels used across the reporting surface.
const (
	ConclusionAbove = "Di Atas Standar"
	ConclusionMeets = "Memenuhi Standar"
	ConclusionBelow = "Di Bawah Standar"
)

// ConclusionClassifier maps a gap (individual minus adjusted standard) and
// a percentage to a categorical label. The ranking engine consumes it as a
// pure function; the presentation layer may substitute its own mapping.
type ConclusionClassifier interface {
	Classify(gapScore, percentage float64) string
	Labels() []string
}

type gapConclusionClassifier struct{}

func NewConclusionClassifier() ConclusionClassifier {
	return &gapConclusionClassifier{}
}

func (c *gapConclusionClassifier) Classify(gapScore, percentage float64) string {
	switch {
	case gapScore > floatTolerance:
		return ConclusionAbove
	case gapScore >= -floatTolerance:
		return ConclusionMeets
	default:
		return ConclusionBelow
	}
}

func (c *gapConclusionClassifier) Labels() []string {
	return []string{ConclusionAbove, ConclusionMeets, ConclusionBelow}
}
