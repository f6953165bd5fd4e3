package domain

// MatchQuality tags how closely the aggregated records resemble the query
type MatchQuality string

const (
	// MatchQualityHigh means the records matched on soil pH and temperature too
	MatchQualityHigh MatchQuality = "high"
	// MatchQualityLow means only commodity and province matched
	MatchQualityLow MatchQuality = "low"
)

// Basis returns the human-readable description of the data backing a result
func (q MatchQuality) Basis() string {
	switch q {
	case MatchQualityHigh:
		return "closely matching data"
	case MatchQualityLow:
		return "province-level data"
	default:
		return ""
	}
}

// RecommendationStatus distinguishes success and error results
type RecommendationStatus string

const (
	RecommendationSuccess RecommendationStatus = "success"
	RecommendationError   RecommendationStatus = "error"
)

// RecommendationQuery is the input of a fertilizer recommendation
type RecommendationQuery struct {
	Commodity string  `json:"commodity" validate:"required"`
	Province  string  `json:"province" validate:"required"`
	SoilPH    float64 `json:"soilPh" validate:"gte=0,lte=14"`
	TempC     float64 `json:"tempC" validate:"gte=-20,lte=60"`
}

// RecommendationResult is either a success carrying median doses or an
// error carrying a reason. An error result is an expected outcome, not a failure.
type RecommendationResult struct {
	Status       RecommendationStatus `json:"status"`
	Dose         *FertilizerDose      `json:"dose,omitempty"` // kg/ha
	MatchedCount int                  `json:"matchedCount,omitempty"`
	MatchQuality MatchQuality         `json:"matchQuality,omitempty"`
	Basis        string               `json:"basis,omitempty"`
	Reason       string               `json:"reason,omitempty"`
}

// NewRecommendationSuccess builds a success result
func NewRecommendationSuccess(dose FertilizerDose, matched int, quality MatchQuality) RecommendationResult {
	return RecommendationResult{
		Status:       RecommendationSuccess,
		Dose:         &dose,
		MatchedCount: matched,
		MatchQuality: quality,
		Basis:        quality.Basis(),
	}
}

// NewNoHistoricalDataResult builds the error result for an unknown commodity/province pair
func NewNoHistoricalDataResult() RecommendationResult {
	return RecommendationResult{
		Status: RecommendationError,
		Reason: ErrNoHistoricalData.Error(),
	}
}

// OK reports whether the result carries doses
func (r RecommendationResult) OK() bool {
	return r.Status == RecommendationSuccess && r.Dose != nil
}

// Err returns ErrNoHistoricalData for error results and nil otherwise
func (r RecommendationResult) Err() error {
	if r.OK() {
		return nil
	}
	return ErrNoHistoricalData
}
