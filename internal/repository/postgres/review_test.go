package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

var reviewColumnsWithCount = []string{
	"id", "book_id", "user_id", "reviewer_name", "rating", "text",
	"created_at", "total_count",
}

func sampleReview() domain.Review {
	return domain.Review{
		ID:           "review-1",
		BookID:       "book-1",
		UserID:       "user-1",
		ReviewerName: "Emily Johnson",
		Rating:       5,
		Text:         "One of the best books I have ever read.",
		CreatedAt:    now,
	}
}

func reviewRow(r domain.Review) []any {
	return []any{
		r.ID, r.BookID, r.UserID, r.ReviewerName, r.Rating, r.Text, r.CreatedAt,
	}
}

func TestReviewRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.BookID, rv.UserID, rv.Rating, rv.Text, rv.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &rv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_MissingTable(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.BookID, rv.UserID, rv.Rating, rv.Text, rv.CreatedAt).
		WillReturnError(undefinedTable("reviews"))

	err := repo.Create(context.Background(), &rv)
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaMissing(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByBookID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectQuery("SELECT .+ FROM reviews r").
		WithArgs("book-1", 20, 0).
		WillReturnRows(
			pgxmock.NewRows(reviewColumnsWithCount).
				AddRow(append(reviewRow(rv), 3)...),
		)

	reviews, total, err := repo.ListByBookID(context.Background(), "book-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Emily Johnson", reviews[0].ReviewerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByBookID_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews r").
		WithArgs("book-9", 20, 0).
		WillReturnRows(pgxmock.NewRows(reviewColumnsWithCount))

	reviews, total, err := repo.ListByBookID(context.Background(), "book-9", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}
