package usecase

import "github.com/tumbuh/backend/internal/domain"

// Feature column names expected by the regression models
const (
	FeatureProvince           = "Province"
	FeatureDistrict           = "District"
	FeatureCommodity          = "Commodity"
	FeatureRain               = "Rain_mm"
	FeatureTemp               = "Temp_C"
	FeatureHumidity           = "Humidity_pct"
	FeatureSoilPH             = "Soil_pH"
	FeatureSoilN              = "Soil_N_index"
	FeatureSoilP              = "Soil_P_index"
	FeatureSoilK              = "Soil_K_index"
	FeatureArea               = "Area_Ha"
	FeaturePriceUrea          = "InputPrice_Urea_RpKg"
	FeaturePriceSP36          = "InputPrice_SP36_RpKg"
	FeaturePriceKCl           = "InputPrice_KCl_RpKg"
	FeatureYear               = "Year"
	FeatureTempHumidity       = "Temp_Humid_Interaction"
	FeatureSoilFertilityIndex = "Soil_Fertility_Index"
	FeatureSoilPHSquared      = "Soil_pH_sq"
	FeatureAvgFertilizerPrice = "Avg_Fertilizer_Price"
)

// BuildFeatures assembles the model input row for a location and area,
// including the engineered interaction features the models were trained with.
func BuildFeatures(loc domain.Location, profile domain.AgronomicProfile, areaHa float64) domain.Features {
	return domain.Features{
		FeatureProvince:  loc.Province,
		FeatureDistrict:  loc.District,
		FeatureCommodity: loc.Commodity,
		FeatureRain:      profile.RainMM,
		FeatureTemp:      profile.TempC,
		FeatureHumidity:  profile.HumidityPct,
		FeatureSoilPH:    profile.SoilPH,
		FeatureSoilN:     profile.SoilNIndex,
		FeatureSoilP:     profile.SoilPIndex,
		FeatureSoilK:     profile.SoilKIndex,
		FeatureArea:      areaHa,
		FeaturePriceUrea: profile.PriceUreaRpKg,
		FeaturePriceSP36: profile.PriceSP36RpKg,
		FeaturePriceKCl:  profile.PriceKClRpKg,
		FeatureYear:      profile.Year,

		FeatureTempHumidity:       profile.TempC * profile.HumidityPct,
		FeatureSoilFertilityIndex: (profile.SoilNIndex + profile.SoilPIndex + profile.SoilKIndex) / 3,
		FeatureSoilPHSquared:      profile.SoilPH * profile.SoilPH,
		FeatureAvgFertilizerPrice: (profile.PriceUreaRpKg + profile.PriceSP36RpKg + profile.PriceKClRpKg) / 3,
	}
}
