package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/sy17258/Book-Review-Platform/pkg/kafka"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
)

// Kafka topic constants for catalogue domain events.
const (
	TopicBookCreated   = "catalog.book.created"
	TopicReviewCreated = "catalog.review.created"
	TopicUserCreated   = "catalog.user.created"
)

// Aggregate type constants.
const (
	AggregateTypeBook   = "book"
	AggregateTypeReview = "review"
	AggregateTypeUser   = "user"
)

// Source identifier for events originating from this service.
const SourceCatalogService = "book-review-platform"

// Publisher is the subset of the Kafka producer used by the event producer.
// It is an interface so service tests can stub publishing without a broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// BookCreatedData is the payload for a book.created event.
type BookCreatedData struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear *int   `json:"published_year,omitempty"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

// UserCreatedData is the payload for a user.created event.
type UserCreatedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Producer publishes catalogue domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBookCreated publishes a book.created event.
func (p *Producer) PublishBookCreated(ctx context.Context, book *domain.Book) error {
	data := BookCreatedData{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		Genre:         book.Genre,
		PublishedYear: book.PublishedYear,
	}

	event, err := pkgkafka.NewEvent(TopicBookCreated, book.ID, AggregateTypeBook, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create book.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookCreated, event); err != nil {
		return fmt.Errorf("publish book.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published book.created event",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:     review.ID,
		BookID: review.BookID,
		UserID: review.UserID,
		Rating: review.Rating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	return nil
}

// PublishUserCreated publishes a user.created event.
func (p *Producer) PublishUserCreated(ctx context.Context, user *domain.User) error {
	data := UserCreatedData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}

	event, err := pkgkafka.NewEvent(TopicUserCreated, user.ID, AggregateTypeUser, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create user.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserCreated, event); err != nil {
		return fmt.Errorf("publish user.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.created event",
		slog.String("user_id", user.ID),
	)

	return nil
}
