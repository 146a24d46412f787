package postgres

import (
	"context"
	"fmt"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/pkg/database"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new book review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.BookID,
		review.UserID,
		review.Rating,
		review.Text,
		review.CreatedAt,
	)
	if err != nil {
		if rel, ok := missingRelation(err); ok {
			return apperrors.SchemaMissing(rel)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// ListByBookID returns paginated reviews for a book, newest first, with the
// total count. Reviewer names come from the users table; reviews whose
// author row is missing or blank show as Anonymous.
func (r *ReviewRepository) ListByBookID(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT r.id, r.book_id, r.user_id, COALESCE(NULLIF(u.name, ''), 'Anonymous') AS reviewer_name,
		       r.rating, r.text, r.created_at,
		       count(*) OVER() AS total_count
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, bookID, limit, offset)
	if err != nil {
		if rel, ok := missingRelation(err); ok {
			return nil, 0, apperrors.SchemaMissing(rel)
		}
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.BookID,
			&rv.UserID,
			&rv.ReviewerName,
			&rv.Rating,
			&rv.Text,
			&rv.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}
