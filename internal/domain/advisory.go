package domain

// Location identifies a farm by province, district and commodity
type Location struct {
	Province  string `json:"province"`
	District  string `json:"district"`
	Commodity string `json:"commodity"`
}

// AgronomicProfile is one row of the reference lookup table: climate, soil
// and input prices typical for a location
type AgronomicProfile struct {
	Location
	RainMM        float64 `json:"rainMm"`
	TempC         float64 `json:"tempC"`
	HumidityPct   float64 `json:"humidityPct"`
	SoilPH        float64 `json:"soilPh"`
	SoilNIndex    float64 `json:"soilNIndex"`
	SoilPIndex    float64 `json:"soilPIndex"`
	SoilKIndex    float64 `json:"soilKIndex"`
	PriceUreaRpKg float64 `json:"priceUreaRpKg"`
	PriceSP36RpKg float64 `json:"priceSp36RpKg"`
	PriceKClRpKg  float64 `json:"priceKclRpKg"`
	Year          int     `json:"year"`
}

// Fallback input prices and year used when the lookup table omits them
const (
	DefaultPriceUreaRpKg = 7000
	DefaultPriceSP36RpKg = 8000
	DefaultPriceKClRpKg  = 9000
	DefaultProfileYear   = 2024
)

// DefaultAgronomicProfile returns the profile used when a location is not in
// the lookup table
func DefaultAgronomicProfile(loc Location) AgronomicProfile {
	return AgronomicProfile{
		Location:      loc,
		RainMM:        2000,
		TempC:         27,
		HumidityPct:   80,
		SoilPH:        6.5,
		SoilNIndex:    3,
		SoilPIndex:    3,
		SoilKIndex:    3,
		PriceUreaRpKg: DefaultPriceUreaRpKg,
		PriceSP36RpKg: DefaultPriceSP36RpKg,
		PriceKClRpKg:  DefaultPriceKClRpKg,
		Year:          DefaultProfileYear,
	}
}

// Profile sources reported on an advisory
const (
	ProfileSourceLookup  = "lookup"
	ProfileSourceDefault = "default"
)

// AdvisoryRequest asks for the full yield, cost and fertilizer advisory
type AdvisoryRequest struct {
	Province  string  `json:"province" validate:"required"`
	District  string  `json:"district" validate:"required"`
	Commodity string  `json:"commodity" validate:"required"`
	AreaHa    float64 `json:"areaHa" validate:"gte=0.1,lte=1000"`
}

// Location returns the request's location
func (r *AdvisoryRequest) Location() Location {
	return Location{Province: r.Province, District: r.District, Commodity: r.Commodity}
}

// Predictions are per-hectare outputs of the regression models
type Predictions struct {
	ProductionKgHa  float64 `json:"productionKgHa"`
	CapitalRpHa     float64 `json:"capitalRpHa"`
	MaintenanceRpHa float64 `json:"maintenanceRpHa"`
}

// PredictionTotals are Predictions scaled to the farm area
type PredictionTotals struct {
	ProductionKg  float64 `json:"productionKg"`
	CapitalRp     float64 `json:"capitalRp"`
	MaintenanceRp float64 `json:"maintenanceRp"`
}

// CostComponent is one line of the cost breakdown
type CostComponent struct {
	Name      string  `json:"name"`
	PerHectRp float64 `json:"perHectareRp"`
	TotalRp   float64 `json:"totalRp"`
}

// CostBreakdown itemises initial capital and maintenance costs for an area
type CostBreakdown struct {
	AreaHa        float64         `json:"areaHa"`
	ScaleFactor   float64         `json:"scaleFactor"`
	Capital       []CostComponent `json:"capital"`
	Maintenance   []CostComponent `json:"maintenance"`
	CapitalRp     float64         `json:"capitalRp"`
	MaintenanceRp float64         `json:"maintenanceRp"`
	TotalRp       float64         `json:"totalRp"`
}

// Advisory is the combined answer for one farm
type Advisory struct {
	Location         Location             `json:"location"`
	AreaHa           float64              `json:"areaHa"`
	Profile          AgronomicProfile     `json:"profile"`
	ProfileSource    string               `json:"profileSource"`
	Predictions      *Predictions         `json:"predictions,omitempty"`
	Totals           *PredictionTotals    `json:"totals,omitempty"`
	Recommendation   RecommendationResult `json:"recommendation"`
	FertilizerTotals *FertilizerDose      `json:"fertilizerTotalsKg,omitempty"`
	Costs            CostBreakdown        `json:"costs"`
	Warnings         []string             `json:"warnings,omitempty"`
}
