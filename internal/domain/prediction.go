package domain

// Regression models served by the prediction service
const (
	ModelProduction  = "production"
	ModelCapital     = "capital"
	ModelMaintenance = "maintenance"
)

// PredictionModels lists the models queried for every advisory
var PredictionModels = []string{ModelProduction, ModelCapital, ModelMaintenance}

// Features is one model input row keyed by training column name
type Features map[string]any
