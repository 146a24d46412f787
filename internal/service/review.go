package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/event"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

// AddReviewInput holds the parameters for submitting a review.
type AddReviewInput struct {
	BookID string
	UserID string
	Rating int
	Text   string
}

// ReviewService implements review submission. Unlike the catalogue read path,
// persistence errors propagate untouched: a review must never silently land
// nowhere.
type ReviewService struct {
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

// AddReview validates and persists a review, returning it with the reviewer
// name attached. Validation runs before any store call.
func (s *ReviewService) AddReview(ctx context.Context, input *AddReviewInput) (*domain.Review, error) {
	if input.BookID == "" {
		return nil, apperrors.InvalidInput("book_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	// Length bounds count characters, not bytes.
	text := strings.TrimSpace(input.Text)
	textLen := utf8.RuneCountInString(text)
	if textLen < domain.MinReviewTextLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("review text must be at least %d characters", domain.MinReviewTextLen))
	}
	if textLen > domain.MaxReviewTextLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("review text must be at most %d characters", domain.MaxReviewTextLen))
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    input.BookID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	review.ReviewerName = s.reviewerName(ctx, input.UserID)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// reviewerName resolves the display name for a reviewer. A missing or
// unreadable profile yields Anonymous; the review itself is already stored.
func (s *ReviewService) reviewerName(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "reviewer profile lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "Anonymous"
	}
	return user.DisplayName()
}
