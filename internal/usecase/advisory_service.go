package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/validation"
)

// Package-level compiled regex patterns for cache key normalisation
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// Warnings attached to advisories that could only be partly answered
const (
	WarningDefaultProfile       = "No reference data for this location - using default agronomic values"
	WarningPredictionsDisabled  = "Yield and cost predictions unavailable - prediction service not configured"
	WarningPredictionsFailed    = "Yield and cost predictions temporarily unavailable"
	WarningNoHistoricalFertData = "No historical fertilizer data for this commodity in this province"
)

// AdvisoryServiceConfig holds configuration for the advisory service
type AdvisoryServiceConfig struct {
	CacheTTL time.Duration
}

// AdvisoryService answers the farmer's questions for one location: expected
// yield and costs, fertilizer doses and a cost breakdown.
type AdvisoryService struct {
	recommender *Recommender
	lookup      domain.LookupRepository
	predictor   domain.Predictor
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewAdvisoryService creates an advisory service. predictor may be nil, in
// which case advisories carry no predictions.
func NewAdvisoryService(
	recommender *Recommender,
	lookup domain.LookupRepository,
	predictor domain.Predictor,
	cache domain.CacheRepository,
	config AdvisoryServiceConfig,
) *AdvisoryService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &AdvisoryService{
		recommender: recommender,
		lookup:      lookup,
		predictor:   predictor,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logging.Component("advisory"),
	}
}

// Ready reports whether the recommender has a reference table
func (s *AdvisoryService) Ready() bool {
	return s.recommender != nil && s.recommender.Fitted()
}

// Provinces lists provinces of the lookup table
func (s *AdvisoryService) Provinces() []string {
	return s.lookup.Provinces()
}

// Districts lists districts of a province
func (s *AdvisoryService) Districts(province string) []string {
	return s.lookup.Districts(province)
}

// Commodities lists commodities grown in a district
func (s *AdvisoryService) Commodities(province, district string) []string {
	return s.lookup.Commodities(province, district)
}

// Recommend validates the query and runs the fertilizer recommender
func (s *AdvisoryService) Recommend(ctx context.Context, query *domain.RecommendationQuery) (domain.RecommendationResult, error) {
	if query == nil {
		return domain.RecommendationResult{}, domain.ErrInvalidRequest
	}
	if err := validation.ValidateStruct(query); err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if s.recommender == nil {
		return domain.RecommendationResult{}, domain.ErrNotFitted
	}
	return s.recommender.RecommendQuery(*query)
}

// Advise builds the full advisory.
// Flow: profile lookup -> features -> predictions (cached) -> fertilizer
// recommendation -> scale by area -> cost breakdown
func (s *AdvisoryService) Advise(ctx context.Context, request *domain.AdvisoryRequest) (*domain.Advisory, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	request.Province = strings.TrimSpace(request.Province)
	request.District = strings.TrimSpace(request.District)
	request.Commodity = strings.TrimSpace(request.Commodity)
	if err := validation.ValidateStruct(request); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if !s.Ready() {
		return nil, domain.ErrNotFitted
	}

	loc := request.Location()
	advisory := &domain.Advisory{
		AreaHa:        request.AreaHa,
		ProfileSource: domain.ProfileSourceLookup,
	}

	profile, err := s.lookup.Find(loc)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		defaults := domain.DefaultAgronomicProfile(loc)
		profile = &defaults
		advisory.ProfileSource = domain.ProfileSourceDefault
		advisory.Warnings = append(advisory.Warnings, WarningDefaultProfile)
	case err != nil:
		return nil, fmt.Errorf("lookup profile: %w", err)
	default:
		// names as stored in the lookup table, which the models and the
		// historical dataset use
		loc = profile.Location
	}
	advisory.Location = loc
	advisory.Profile = *profile

	predictions, err := s.predict(ctx, loc, *profile, request.AreaHa)
	switch {
	case errors.Is(err, domain.ErrPredictorDisabled):
		advisory.Warnings = append(advisory.Warnings, WarningPredictionsDisabled)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Err(err).
			Str("province", loc.Province).
			Str("district", loc.District).
			Str("commodity", loc.Commodity).
			Msg("Predictions failed")
		advisory.Warnings = append(advisory.Warnings, WarningPredictionsFailed)
	default:
		advisory.Predictions = predictions
		advisory.Totals = &domain.PredictionTotals{
			ProductionKg:  predictions.ProductionKgHa * request.AreaHa,
			CapitalRp:     predictions.CapitalRpHa * request.AreaHa,
			MaintenanceRp: predictions.MaintenanceRpHa * request.AreaHa,
		}
	}

	recommendation, err := s.recommender.Recommend(loc.Commodity, loc.Province, profile.SoilPH, profile.TempC)
	if err != nil {
		return nil, err
	}
	advisory.Recommendation = recommendation
	if recommendation.OK() {
		total := recommendation.Dose.Scale(request.AreaHa)
		advisory.FertilizerTotals = &total
	} else {
		advisory.Warnings = append(advisory.Warnings, WarningNoHistoricalFertData)
	}

	costs, err := EstimateCosts(request.AreaHa)
	if err != nil {
		return nil, err
	}
	advisory.Costs = costs

	return advisory, nil
}

// predict returns per-hectare predictions of the three models, from cache when possible
func (s *AdvisoryService) predict(ctx context.Context, loc domain.Location, profile domain.AgronomicProfile, areaHa float64) (*domain.Predictions, error) {
	if s.predictor == nil {
		return nil, domain.ErrPredictorDisabled
	}

	cacheKey := generateCacheKey(loc, areaHa)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	features := BuildFeatures(loc, profile, areaHa)
	values := make(map[string]float64, len(domain.PredictionModels))
	for _, model := range domain.PredictionModels {
		v, err := s.predictor.Predict(ctx, model, features)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", model, err)
		}
		values[model] = v
	}

	predictions := &domain.Predictions{
		ProductionKgHa:  values[domain.ModelProduction],
		CapitalRpHa:     values[domain.ModelCapital],
		MaintenanceRpHa: values[domain.ModelMaintenance],
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, predictions, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Caching predictions failed")
		}
	}

	return predictions, nil
}

// generateCacheKey creates a normalized cache key for a prediction request.
// Format: "prediction:{province}:{district}:{commodity}:{area}"
func generateCacheKey(loc domain.Location, areaHa float64) string {
	return fmt.Sprintf("prediction:%s:%s:%s:%s",
		normalizeForCacheKey(loc.Province),
		normalizeForCacheKey(loc.District),
		normalizeForCacheKey(loc.Commodity),
		strconv.FormatFloat(areaHa, 'f', -1, 64))
}

// normalizeForCacheKey lowercases, strips special characters and collapses whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves predictions from cache
func (s *AdvisoryService) getFromCache(ctx context.Context, key string) (*domain.Predictions, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case *domain.Predictions:
		return v, nil
	case map[string]interface{}:
		// the memory cache stores JSON-decoded values
		return mapToPredictions(v), nil
	default:
		return nil, domain.ErrCacheMiss
	}
}

// mapToPredictions converts a map (from JSON cache) to Predictions
func mapToPredictions(data map[string]interface{}) *domain.Predictions {
	result := &domain.Predictions{}
	if v, ok := data["productionKgHa"].(float64); ok {
		result.ProductionKgHa = v
	}
	if v, ok := data["capitalRpHa"].(float64); ok {
		result.CapitalRpHa = v
	}
	if v, ok := data["maintenanceRpHa"].(float64); ok {
		result.MaintenanceRpHa = v
	}
	return result
}
