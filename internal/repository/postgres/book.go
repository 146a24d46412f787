package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	"github.com/sy17258/Book-Review-Platform/pkg/database"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

const (
	statsView = "books_with_stats"
	baseTable = "books"
)

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

// ListWithStats returns books from the stats view with review aggregates.
func (r *BookRepository) ListWithStats(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	return r.list(ctx, statsView, filter, true)
}

// ListBase returns books from the base table. Aggregates are zeroed and a
// rating sort degrades to newest, since the bare table has no rating column.
func (r *BookRepository) ListBase(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	return r.list(ctx, baseTable, filter, false)
}

// GetWithStats retrieves one book with aggregates from the stats view.
func (r *BookRepository) GetWithStats(ctx context.Context, id string) (*domain.Book, error) {
	return r.get(ctx, statsView, id, true)
}

// GetBase retrieves one book from the base table with zeroed aggregates.
func (r *BookRepository) GetBase(ctx context.Context, id string) (*domain.Book, error) {
	return r.get(ctx, baseTable, id, false)
}

// Create inserts a new book into the database.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
		INSERT INTO books (id, title, slug, author, description, cover_image_url, genre, published_year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Slug,
		b.Author,
		b.Description,
		b.CoverImageURL,
		b.Genre,
		b.PublishedYear,
		b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "slug", b.Slug)
		}
		if rel, ok := missingRelation(err); ok {
			return apperrors.SchemaMissing(rel)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// Genres returns the distinct genres present in the catalogue, sorted.
func (r *BookRepository) Genres(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "genre")
}

// Authors returns the distinct authors present in the catalogue, sorted.
func (r *BookRepository) Authors(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "author")
}

func (r *BookRepository) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM books
		WHERE %s <> ''
		ORDER BY %s`, column, column, column)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		if rel, ok := missingRelation(err); ok {
			return nil, apperrors.SchemaMissing(rel)
		}
		return nil, fmt.Errorf("list distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", column, err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", column, err)
	}

	if values == nil {
		values = []string{}
	}

	return values, nil
}

func (r *BookRepository) list(ctx context.Context, relation string, filter repository.BookFilter, withStats bool) ([]domain.Book, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Genre != nil {
		conditions = append(conditions, fmt.Sprintf("genre = $%d", argIndex))
		args = append(args, *filter.Genre)
		argIndex++
	}

	if filter.Author != nil {
		conditions = append(conditions, fmt.Sprintf("author = $%d", argIndex))
		args = append(args, *filter.Author)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	columns := "id, title, slug, author, description, cover_image_url, genre, published_year, created_at"
	if withStats {
		columns += ", avg_rating, review_count"
	}

	// count(*) OVER() gives the total match count in the same query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM %s
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		columns, relation, whereClause, orderBy(filter.Sort, withStats), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if rel, ok := missingRelation(err); ok {
			return nil, 0, apperrors.SchemaMissing(rel)
		}
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var (
		books      []domain.Book
		totalCount int
	)

	for rows.Next() {
		b, err := scanBookRow(rows, withStats, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	if books == nil {
		books = []domain.Book{}
	}

	return books, totalCount, nil
}

func (r *BookRepository) get(ctx context.Context, relation, id string, withStats bool) (*domain.Book, error) {
	columns := "id, title, slug, author, description, cover_image_url, genre, published_year, created_at"
	if withStats {
		columns += ", avg_rating, review_count"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1`, columns, relation)

	var b domain.Book
	dest := []any{
		&b.ID,
		&b.Title,
		&b.Slug,
		&b.Author,
		&b.Description,
		&b.CoverImageURL,
		&b.Genre,
		&b.PublishedYear,
		&b.CreatedAt,
	}
	if withStats {
		dest = append(dest, &b.AvgRating, &b.ReviewCount)
	}

	if err := r.pool.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if rel, ok := missingRelation(err); ok {
			return nil, apperrors.SchemaMissing(rel)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	return &b, nil
}

// scanBookRow scans one list row. The trailing total_count column lands in
// totalCount on every row.
func scanBookRow(rows pgx.Rows, withStats bool, totalCount *int) (*domain.Book, error) {
	var b domain.Book
	dest := []any{
		&b.ID,
		&b.Title,
		&b.Slug,
		&b.Author,
		&b.Description,
		&b.CoverImageURL,
		&b.Genre,
		&b.PublishedYear,
		&b.CreatedAt,
	}
	if withStats {
		dest = append(dest, &b.AvgRating, &b.ReviewCount)
	}
	dest = append(dest, totalCount)

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan book row: %w", err)
	}

	return &b, nil
}

// orderBy maps a sort order onto an ORDER BY clause. A rating sort on a
// relation without aggregates degrades to newest.
func orderBy(sort string, withStats bool) string {
	switch sort {
	case domain.SortRating:
		if withStats {
			return "avg_rating DESC, created_at DESC"
		}
		return "created_at DESC"
	case domain.SortTitle:
		return "title ASC"
	default:
		return "created_at DESC"
	}
}

// missingRelation checks whether the error is SQLSTATE 42P01 (undefined
// table). It returns the relation name from the server message when present.
func missingRelation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UndefinedTable {
		return "", false
	}
	if pgErr.TableName != "" {
		return pgErr.TableName, true
	}
	return "unknown", true
}

// isUniqueViolation checks whether the error is SQLSTATE 23505 (unique violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
