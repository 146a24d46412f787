package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
)

// =============================================================================
// GET /api/v1/books/{bookId}/reviews - ListReviews
// =============================================================================

func TestListReviews_Success(t *testing.T) {
	reviews := new(mockReviewRepo)
	router, _ := newTestRouter(t, new(mockBookRepo), reviews, new(mockUserRepo))

	reviews.On("ListByBookID", mock.Anything, "book-1", 1, 20).
		Return([]domain.Review{
			{ID: "rev-2", BookID: "book-1", Rating: 4, ReviewerName: "Michael Chen"},
			{ID: "rev-1", BookID: "book-1", Rating: 5, ReviewerName: "Emily Johnson"},
		}, 2, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/book-1/reviews", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.Review `json:"data"`
		Total      int             `json:"total"`
		TotalPages int             `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Michael Chen", resp.Data[0].ReviewerName)
	reviews.AssertExpectations(t)
}

func TestListReviews_StoreFailureServesBuiltinReviews(t *testing.T) {
	reviews := new(mockReviewRepo)
	router, _ := newTestRouter(t, new(mockBookRepo), reviews, new(mockUserRepo))

	reviews.On("ListByBookID", mock.Anything, "2", 1, 20).
		Return(nil, 0, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/2/reviews", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Review `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Sarah Williams", resp.Data[0].ReviewerName)
}

func TestListReviews_InvalidPage(t *testing.T) {
	router, _ := newTestRouter(t, new(mockBookRepo), new(mockReviewRepo), new(mockUserRepo))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/book-1/reviews?page=0", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// POST /api/v1/books/{bookId}/reviews - CreateReview
// =============================================================================

func TestCreateReview_Success(t *testing.T) {
	reviews := new(mockReviewRepo)
	users := new(mockUserRepo)
	router, jwtManager := newTestRouter(t, new(mockBookRepo), reviews, users)

	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	users.On("GetByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", Email: "emily@example.com", Name: "Emily Johnson"}, nil)

	body := CreateReviewRequest{Rating: 5, Text: "A wonderful read from start to finish."}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/book-1/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, jwtManager))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Review `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "book-1", resp.Data.BookID)
	assert.Equal(t, "user-1", resp.Data.UserID)
	assert.Equal(t, "Emily Johnson", resp.Data.ReviewerName)
	reviews.AssertExpectations(t)
}

func TestCreateReview_RequiresAuth(t *testing.T) {
	reviews := new(mockReviewRepo)
	router, _ := newTestRouter(t, new(mockBookRepo), reviews, new(mockUserRepo))

	body := CreateReviewRequest{Rating: 5, Text: "A wonderful read from start to finish."}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/book-1/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	router, jwtManager := newTestRouter(t, new(mockBookRepo), new(mockReviewRepo), new(mockUserRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/book-1/reviews",
		bytes.NewReader([]byte(`{"rating": 6, "text": "A wonderful read from start to finish."}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, jwtManager))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateReview_ShortTextRejected(t *testing.T) {
	reviews := new(mockReviewRepo)
	router, jwtManager := newTestRouter(t, new(mockBookRepo), reviews, new(mockUserRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/book-1/reviews",
		bytes.NewReader([]byte(`{"rating": 4, "text": "too short"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, jwtManager))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_RequiresJSONContentType(t *testing.T) {
	router, jwtManager := newTestRouter(t, new(mockBookRepo), new(mockReviewRepo), new(mockUserRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/book-1/reviews",
		bytes.NewReader([]byte(`rating=5`)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", bearerToken(t, jwtManager))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
