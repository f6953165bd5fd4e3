package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Predictor runs one of the pretrained regression models on a feature row
type Predictor interface {
	Predict(ctx context.Context, model string, features Features) (float64, error)
}

// LookupRepository serves the reference lookup table
type LookupRepository interface {
	Provinces() []string
	Districts(province string) []string
	Commodities(province, district string) []string
	Find(loc Location) (*AgronomicProfile, error)
}

// FeedbackRepository persists feedback submissions
type FeedbackRepository interface {
	Save(ctx context.Context, feedback *Feedback) error
	Recent(ctx context.Context, limit int) ([]Feedback, error)
}
