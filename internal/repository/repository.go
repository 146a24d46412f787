package repository

import (
	"context"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
)

// BookFilter defines filter criteria for listing books.
type BookFilter struct {
	Genre   *string
	Author  *string
	Search  *string
	Sort    string
	Page    int
	PerPage int
}

// BookRepository defines the interface for book persistence operations.
// Reads come in two flavours: the WithStats variants query the stats view
// (review aggregates included) and the Base variants query the bare table.
// Either may fail with ErrSchemaMissing when its relation does not exist,
// which callers use to fall back to the next data source.
type BookRepository interface {
	// ListWithStats returns books with review aggregates from the stats view,
	// along with the total count of matches.
	ListWithStats(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)

	// ListBase returns books from the base table with zeroed aggregates,
	// along with the total count of matches.
	ListBase(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)

	// GetWithStats retrieves one book with review aggregates by its identifier.
	GetWithStats(ctx context.Context, id string) (*domain.Book, error)

	// GetBase retrieves one book from the base table by its identifier.
	GetBase(ctx context.Context, id string) (*domain.Book, error)

	// Create inserts a new book into the store.
	Create(ctx context.Context, book *domain.Book) error

	// Genres returns the distinct genres present in the catalogue.
	Genres(ctx context.Context) ([]string, error)

	// Authors returns the distinct authors present in the catalogue.
	Authors(ctx context.Context) ([]string, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// ListByBookID returns paginated reviews for a book, newest first, along
	// with the total count.
	ListByBookID(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error)
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	// Create inserts a new user account.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
