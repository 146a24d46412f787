package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/event"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	"github.com/sy17258/Book-Review-Platform/internal/repository/static"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
	"github.com/sy17258/Book-Review-Platform/pkg/pagination"
	"github.com/sy17258/Book-Review-Platform/pkg/slug"
)

// baseTableFetchLimit caps the base-table listing. The bare table carries no
// aggregates and is served as a single page, so the read is bounded rather
// than paginated.
const baseTableFetchLimit = 500

// reviewFetchLimit bounds the reviews attached to a book detail response.
const reviewFetchLimit = 100

// FacetCache is the read-through cache for the genre and author facet lists.
type FacetCache interface {
	GetGenres(ctx context.Context) ([]string, error)
	SetGenres(ctx context.Context, genres []string) error
	GetAuthors(ctx context.Context) ([]string, error)
	SetAuthors(ctx context.Context, authors []string) error
	Invalidate(ctx context.Context) error
}

// ListBooksInput holds the listing parameters.
type ListBooksInput struct {
	Genre   *string
	Author  *string
	Search  *string
	Sort    string
	Page    int
	PerPage int
}

// BookListResult is one page of the catalogue.
type BookListResult struct {
	Books      []domain.Book `json:"books"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalPages int           `json:"total_pages"`
}

// BookDetail is a book together with its reviews.
type BookDetail struct {
	domain.Book
	Reviews []domain.Review `json:"reviews"`
}

// CreateBookInput holds the parameters for creating a book.
type CreateBookInput struct {
	Title         string
	Author        string
	Genre         string
	Description   string
	CoverImageURL string
	PublishedYear *int
}

// CatalogService implements the catalogue read path with tiered degradation
// (stats view, then base table, then the built-in dataset) plus book creation.
// Reads never fail outward except a book lookup that resolves in no tier;
// writes propagate their errors untouched.
type CatalogService struct {
	repo     repository.BookRepository
	reviews  repository.ReviewRepository
	fallback *static.Catalog
	facets   FacetCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalogue service. facets may be nil when
// Redis is not configured.
func NewCatalogService(
	repo repository.BookRepository,
	reviews repository.ReviewRepository,
	fallback *static.Catalog,
	facets FacetCache,
	producer *event.Producer,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:     repo,
		reviews:  reviews,
		fallback: fallback,
		facets:   facets,
		producer: producer,
		logger:   logger,
	}
}

// ListBooks returns one page of the catalogue. It degrades through the three
// tiers and never returns an error: total failure still yields a valid empty
// page.
func (s *CatalogService) ListBooks(ctx context.Context, input ListBooksInput) *BookListResult {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	if perPage > pagination.MaxPerPage {
		perPage = pagination.MaxPerPage
	}
	sort := input.Sort
	if !domain.IsValidSort(sort) {
		sort = domain.SortNewest
	}

	filter := repository.BookFilter{
		Genre:   input.Genre,
		Author:  input.Author,
		Search:  input.Search,
		Sort:    sort,
		Page:    page,
		PerPage: perPage,
	}

	books, total, err := s.repo.ListWithStats(ctx, filter)
	if err == nil {
		return &BookListResult{
			Books:      books,
			TotalCount: total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: pagination.TotalPages(total, perPage),
		}
	}

	if apperrors.IsSchemaMissing(err) {
		s.logger.WarnContext(ctx, "stats view missing, listing from base table",
			slog.String("error", err.Error()),
		)

		baseFilter := filter
		baseFilter.Page = 1
		baseFilter.PerPage = baseTableFetchLimit

		books, _, baseErr := s.repo.ListBase(ctx, baseFilter)
		if baseErr == nil {
			// The base table has no aggregates, so everything lands on
			// one page.
			return &BookListResult{
				Books:      books,
				TotalCount: len(books),
				Page:       1,
				PerPage:    perPage,
				TotalPages: 1,
			}
		}
		err = baseErr
	}

	s.logger.WarnContext(ctx, "catalogue unavailable, serving built-in dataset",
		slog.String("error", err.Error()),
	)

	books, total = s.fallback.ListBooks(filter)
	return &BookListResult{
		Books:      books,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pagination.TotalPages(total, perPage),
	}
}

// GetBook returns a book with its reviews, degrading through the tiers. It
// errors with NotFound only when the id resolves in no tier.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*BookDetail, error) {
	book, fromFallback, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	var reviews []domain.Review
	if fromFallback {
		reviews = s.fallback.Reviews(id)
	} else {
		dbReviews, _, reviewErr := s.reviews.ListByBookID(ctx, id, 1, reviewFetchLimit)
		if reviewErr != nil {
			// A broken review store must not hide a found book.
			s.logger.WarnContext(ctx, "review read failed, serving built-in reviews",
				slog.String("book_id", id),
				slog.String("error", reviewErr.Error()),
			)
			dbReviews = s.fallback.Reviews(id)
		}
		reviews = dbReviews
	}

	return &BookDetail{Book: *book, Reviews: reviews}, nil
}

// ListReviews returns one page of reviews for a book, newest first. A failed
// remote read substitutes the built-in reviews for that id.
func (s *CatalogService) ListReviews(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > pagination.MaxPerPage {
		perPage = pagination.MaxPerPage
	}

	reviews, total, err := s.reviews.ListByBookID(ctx, bookID, page, perPage)
	if err != nil {
		s.logger.WarnContext(ctx, "review read failed, serving built-in reviews",
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		fallback := s.fallback.Reviews(bookID)
		return fallback, len(fallback), nil
	}

	return reviews, total, nil
}

// ListGenres returns the deduplicated genre facet. It never fails: a remote
// error or an empty result falls back to the built-in dataset's genres.
func (s *CatalogService) ListGenres(ctx context.Context) []string {
	return s.facetValues(ctx, "genres",
		func() ([]string, error) { return s.facets.GetGenres(ctx) },
		func(v []string) error { return s.facets.SetGenres(ctx, v) },
		func() ([]string, error) { return s.repo.Genres(ctx) },
		s.fallback.Genres,
	)
}

// ListAuthors returns the deduplicated author facet with the same fallback
// behaviour as ListGenres.
func (s *CatalogService) ListAuthors(ctx context.Context) []string {
	return s.facetValues(ctx, "authors",
		func() ([]string, error) { return s.facets.GetAuthors(ctx) },
		func(v []string) error { return s.facets.SetAuthors(ctx, v) },
		func() ([]string, error) { return s.repo.Authors(ctx) },
		s.fallback.Authors,
	)
}

func (s *CatalogService) facetValues(
	ctx context.Context,
	name string,
	cacheGet func() ([]string, error),
	cacheSet func([]string) error,
	remote func() ([]string, error),
	fallback func() []string,
) []string {
	if s.facets != nil {
		if cached, err := cacheGet(); err == nil {
			return cached
		}
	}

	values, err := remote()
	if err != nil || len(values) == 0 {
		if err != nil {
			s.logger.WarnContext(ctx, "facet read failed, serving built-in values",
				slog.String("facet", name),
				slog.String("error", err.Error()),
			)
		}
		return fallback()
	}

	if s.facets != nil {
		if err := cacheSet(values); err != nil {
			s.logger.WarnContext(ctx, "facet cache write failed",
				slog.String("facet", name),
				slog.String("error", err.Error()),
			)
		}
	}

	return values
}

// CreateBook creates a new book. Unlike the read path, write errors propagate.
func (s *CatalogService) CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Author == "" {
		return nil, apperrors.InvalidInput("author is required")
	}
	if input.Genre == "" {
		return nil, apperrors.InvalidInput("genre is required")
	}

	book := &domain.Book{
		ID:            uuid.New().String(),
		Title:         input.Title,
		Slug:          slug.Generate(input.Title),
		Author:        input.Author,
		Genre:         input.Genre,
		Description:   input.Description,
		CoverImageURL: input.CoverImageURL,
		PublishedYear: input.PublishedYear,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if s.facets != nil {
		if err := s.facets.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "facet cache invalidation failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishBookCreated(ctx, book); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.created event",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("slug", book.Slug),
	)

	return book, nil
}

// findBook resolves a book through the tiers and reports whether it came
// from the built-in dataset.
func (s *CatalogService) findBook(ctx context.Context, id string) (*domain.Book, bool, error) {
	book, err := s.repo.GetWithStats(ctx, id)
	if err == nil {
		return book, false, nil
	}

	if apperrors.IsSchemaMissing(err) {
		s.logger.WarnContext(ctx, "stats view missing, reading base table",
			slog.String("book_id", id),
		)
		book, baseErr := s.repo.GetBase(ctx, id)
		if baseErr == nil {
			return book, false, nil
		}
		err = baseErr
	}

	book, fallbackErr := s.fallback.GetBook(id)
	if fallbackErr != nil {
		return nil, false, apperrors.NotFound("book", id)
	}

	s.logger.WarnContext(ctx, "book served from built-in dataset",
		slog.String("book_id", id),
		slog.String("error", err.Error()),
	)

	return book, true, nil
}
