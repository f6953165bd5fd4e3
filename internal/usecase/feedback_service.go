package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/metrics"
	"github.com/tumbuh/backend/internal/validation"
)

const (
	defaultRecentFeedback = 20
	maxRecentFeedback     = 100
)

// FeedbackService accepts and lists farmer feedback
type FeedbackService struct {
	repo   domain.FeedbackRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(repo domain.FeedbackRepository) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		now:    time.Now,
		logger: logging.Component("feedback"),
	}
}

// Submit validates the feedback, assigns an ID and timestamp and stores it
func (s *FeedbackService) Submit(ctx context.Context, feedback *domain.Feedback) (*domain.Feedback, error) {
	if feedback == nil {
		return nil, domain.ErrInvalidRequest
	}
	feedback.Name = strings.TrimSpace(feedback.Name)
	feedback.Email = strings.TrimSpace(feedback.Email)
	feedback.Message = strings.TrimSpace(feedback.Message)
	if err := validation.ValidateStruct(feedback); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	feedback.ID = uuid.NewString()
	feedback.CreatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, feedback); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	metrics.FeedbackSubmitted.Inc()
	s.logger.Info().Str("id", feedback.ID).Int("rating", feedback.Rating).Msg("Feedback received")
	return feedback, nil
}

// Recent returns the newest feedback first. limit is clamped to [1, 100];
// zero selects the default page size.
func (s *FeedbackService) Recent(ctx context.Context, limit int) ([]domain.Feedback, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentFeedback
	case limit > maxRecentFeedback:
		limit = maxRecentFeedback
	}
	items, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}
