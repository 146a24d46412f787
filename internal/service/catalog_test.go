package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/event"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	"github.com/sy17258/Book-Review-Platform/internal/repository/static"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
	pkgkafka "github.com/sy17258/Book-Review-Platform/pkg/kafka"
)

// --- Mock Book Repository ---

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) ListWithStats(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) ListBase(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) GetWithStats(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) GetBase(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) Genres(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBookRepository) Authors(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByBookID(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, bookID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Stub Publisher ---

type stubPublisher struct {
	err    error
	topics []string
}

func (p *stubPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	return p.err
}

// --- Fake Facet Cache ---

type fakeFacetCache struct {
	genres  []string
	authors []string
}

func (c *fakeFacetCache) GetGenres(context.Context) ([]string, error) {
	if c.genres == nil {
		return nil, apperrors.ErrNotFound
	}
	return c.genres, nil
}

func (c *fakeFacetCache) SetGenres(_ context.Context, v []string) error {
	c.genres = v
	return nil
}

func (c *fakeFacetCache) GetAuthors(context.Context) ([]string, error) {
	if c.authors == nil {
		return nil, apperrors.ErrNotFound
	}
	return c.authors, nil
}

func (c *fakeFacetCache) SetAuthors(_ context.Context, v []string) error {
	c.authors = v
	return nil
}

func (c *fakeFacetCache) Invalidate(context.Context) error {
	c.genres = nil
	c.authors = nil
	return nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCatalogService(books *mockBookRepository, reviews *mockReviewRepository, facets FacetCache) (*CatalogService, *stubPublisher) {
	logger := newTestLogger()
	publisher := &stubPublisher{}
	producer := event.NewProducer(publisher, logger)
	return NewCatalogService(books, reviews, static.NewCatalog(), facets, producer, logger), publisher
}

func strPtr(s string) *string { return &s }

func statsBook(id, title string, rating float64, count int) domain.Book {
	return domain.Book{ID: id, Title: title, AvgRating: rating, ReviewCount: count}
}

// --- ListBooks ---

func TestListBooks_StatsView(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	expected := []domain.Book{statsBook("b1", "Dune", 4.5, 12)}
	books.On("ListWithStats", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(expected, 25, nil)

	result := svc.ListBooks(ctx, ListBooksInput{Page: 1, PerPage: 10})

	assert.Equal(t, expected, result.Books)
	assert.Equal(t, 25, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	books.AssertExpectations(t)
	books.AssertNotCalled(t, "ListBase", mock.Anything, mock.Anything)
}

func TestListBooks_ViewMissing_FallsBackToBaseTable(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	baseBooks := []domain.Book{
		{ID: "b1", Title: "Dune"},
		{ID: "b2", Title: "The Hobbit"},
	}

	books.On("ListWithStats", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(nil, 0, apperrors.SchemaMissing("books_with_stats"))
	books.On("ListBase", ctx, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.Page == 1 && f.PerPage == baseTableFetchLimit
	})).Return(baseBooks, 2, nil)

	result := svc.ListBooks(ctx, ListBooksInput{Page: 3, PerPage: 10})

	// The base table is served as a single page with zeroed aggregates.
	assert.Equal(t, baseBooks, result.Books)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.TotalPages)
	assert.Zero(t, result.Books[0].AvgRating)
	books.AssertExpectations(t)
}

func TestListBooks_RemoteFailure_ServesBuiltinDataset(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("ListWithStats", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(nil, 0, errors.New("dial tcp: connection refused"))

	result := svc.ListBooks(ctx, ListBooksInput{Search: strPtr("gatsby"), Page: 1, PerPage: 10})

	require.Len(t, result.Books, 1)
	assert.Equal(t, "The Great Gatsby", result.Books[0].Title)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)
	books.AssertNotCalled(t, "ListBase", mock.Anything, mock.Anything)
}

func TestListBooks_BaseTableAlsoFails_ServesBuiltinDataset(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("ListWithStats", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(nil, 0, apperrors.SchemaMissing("books_with_stats"))
	books.On("ListBase", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(nil, 0, apperrors.SchemaMissing("books"))

	result := svc.ListBooks(ctx, ListBooksInput{Sort: domain.SortRating, Page: 1, PerPage: 10})

	require.Len(t, result.Books, 6)
	assert.Equal(t, "To Kill a Mockingbird", result.Books[0].Title)
	books.AssertExpectations(t)
}

func TestListBooks_NeverErrors_EmptyPage(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("ListWithStats", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return(nil, 0, errors.New("boom"))

	result := svc.ListBooks(ctx, ListBooksInput{Search: strPtr("no such book"), Page: 1, PerPage: 10})

	assert.NotNil(t, result.Books)
	assert.Empty(t, result.Books)
	assert.Equal(t, 0, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)
}

func TestListBooks_InvalidSortDefaultsToNewest(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("ListWithStats", ctx, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.Sort == domain.SortNewest
	})).Return([]domain.Book{}, 0, nil)

	svc.ListBooks(ctx, ListBooksInput{Sort: "price", Page: 1, PerPage: 10})
	books.AssertExpectations(t)
}

// --- GetBook ---

func TestGetBook_StatsView_WithReviews(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	book := statsBook("b1", "Dune", 4.5, 12)
	dbReviews := []domain.Review{{ID: "r1", BookID: "b1", Rating: 5, ReviewerName: "Emily Johnson"}}

	books.On("GetWithStats", ctx, "b1").Return(&book, nil)
	reviews.On("ListByBookID", ctx, "b1", 1, reviewFetchLimit).Return(dbReviews, 1, nil)

	detail, err := svc.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", detail.Title)
	assert.Equal(t, dbReviews, detail.Reviews)
	books.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestGetBook_ViewMissing_ReadsBaseTable(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	base := domain.Book{ID: "b1", Title: "Dune"}
	books.On("GetWithStats", ctx, "b1").Return(nil, apperrors.SchemaMissing("books_with_stats"))
	books.On("GetBase", ctx, "b1").Return(&base, nil)
	reviews.On("ListByBookID", ctx, "b1", 1, reviewFetchLimit).Return([]domain.Review{}, 0, nil)

	detail, err := svc.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", detail.Title)
	assert.Zero(t, detail.AvgRating)
	assert.Zero(t, detail.ReviewCount)
	books.AssertExpectations(t)
}

func TestGetBook_ReviewReadFails_ServesBuiltinReviews(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	book := statsBook("1", "The Great Gatsby", 4.2, 156)
	books.On("GetWithStats", ctx, "1").Return(&book, nil)
	reviews.On("ListByBookID", ctx, "1", 1, reviewFetchLimit).
		Return(nil, 0, apperrors.SchemaMissing("reviews"))

	detail, err := svc.GetBook(ctx, "1")
	require.NoError(t, err)
	require.Len(t, detail.Reviews, 2)
	assert.Equal(t, "Emily Johnson", detail.Reviews[0].ReviewerName)
}

func TestGetBook_RemoteFailure_ServesBuiltinBookAndReviews(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("GetWithStats", ctx, "1").Return(nil, errors.New("connection refused"))

	detail, err := svc.GetBook(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", detail.Title)
	require.Len(t, detail.Reviews, 2)
	reviews.AssertNotCalled(t, "ListByBookID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetBook_UnknownInAllTiers_NotFound(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("GetWithStats", ctx, "nope").Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetBook(ctx, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Facets ---

func TestListGenres_RemoteSuccess_Cached(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	cache := &fakeFacetCache{}
	svc, _ := newTestCatalogService(books, reviews, cache)
	ctx := context.Background()

	remote := []string{"Classic Literature", "Science Fiction"}
	books.On("Genres", ctx).Return(remote, nil).Once()

	assert.Equal(t, remote, svc.ListGenres(ctx))
	// Second call is served from the cache, so the repo sees one query.
	assert.Equal(t, remote, svc.ListGenres(ctx))
	books.AssertExpectations(t)
}

func TestListGenres_RemoteError_ServesBuiltinValues(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("Genres", ctx).Return(nil, errors.New("boom"))

	genres := svc.ListGenres(ctx)
	assert.Equal(t, []string{"Classic Literature", "Science Fiction", "Fantasy", "Romance"}, genres)
}

func TestListGenres_RemoteEmpty_ServesBuiltinValues(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("Genres", ctx).Return([]string{}, nil)

	genres := svc.ListGenres(ctx)
	assert.Contains(t, genres, "Fantasy")
}

func TestListAuthors_Idempotent(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	remote := []string{"Frank Herbert", "Jane Austen"}
	books.On("Authors", ctx).Return(remote, nil)

	first := svc.ListAuthors(ctx)
	second := svc.ListAuthors(ctx)
	assert.Equal(t, first, second)
}

// --- CreateBook ---

func TestCreateBook_Success(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	cache := &fakeFacetCache{genres: []string{"stale"}}
	svc, publisher := newTestCatalogService(books, reviews, cache)
	ctx := context.Background()

	books.On("Create", ctx, mock.AnythingOfType("*domain.Book")).Return(nil)

	book, err := svc.CreateBook(ctx, &CreateBookInput{
		Title:  "The Left Hand of Darkness",
		Author: "Ursula K. Le Guin",
		Genre:  "Science Fiction",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "the-left-hand-of-darkness", book.Slug)
	assert.NotZero(t, book.CreatedAt)
	assert.Contains(t, publisher.topics, event.TopicBookCreated)
	assert.Nil(t, cache.genres)
	books.AssertExpectations(t)
}

func TestCreateBook_ValidationErrors(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, &CreateBookInput{Author: "a", Genre: "g"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateBook(ctx, &CreateBookInput{Title: "t", Genre: "g"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateBook(ctx, &CreateBookInput{Title: "t", Author: "a"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBook_WriteErrorPropagates(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, publisher := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	books.On("Create", ctx, mock.AnythingOfType("*domain.Book")).
		Return(apperrors.SchemaMissing("books"))

	_, err := svc.CreateBook(ctx, &CreateBookInput{Title: "t", Author: "a", Genre: "g"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaMissing(err))
	assert.Empty(t, publisher.topics)
}

func TestCreateBook_PublishFailureDoesNotFail(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, publisher := newTestCatalogService(books, reviews, nil)
	publisher.err = errors.New("broker down")
	ctx := context.Background()

	books.On("Create", ctx, mock.AnythingOfType("*domain.Book")).Return(nil)

	book, err := svc.CreateBook(ctx, &CreateBookInput{Title: "t", Author: "a", Genre: "g"})
	require.NoError(t, err)
	assert.NotNil(t, book)
}

// --- ListReviews ---

func TestListReviews_RemoteFailure_ServesBuiltinReviews(t *testing.T) {
	books := new(mockBookRepository)
	reviews := new(mockReviewRepository)
	svc, _ := newTestCatalogService(books, reviews, nil)
	ctx := context.Background()

	reviews.On("ListByBookID", ctx, "2", 1, 20).
		Return(nil, 0, errors.New("connection refused"))

	got, total, err := svc.ListReviews(ctx, "2", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Sarah Williams", got[0].ReviewerName)
}
