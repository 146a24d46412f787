// Package static provides the built-in catalogue used as the last fallback
// tier when the database is unreachable or not yet provisioned. Reads served
// from here always succeed; the dataset is fixed at compile time.
package static

import (
	"sort"
	"strings"
	"time"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/repository"
	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

// Catalog holds the built-in books and reviews.
type Catalog struct {
	books   []domain.Book
	reviews map[string][]domain.Review
}

// NewCatalog returns the built-in catalogue.
func NewCatalog() *Catalog {
	return &Catalog{
		books:   builtinBooks(),
		reviews: builtinReviews(),
	}
}

// ListBooks filters, sorts, and paginates the built-in books. It mirrors the
// database listing semantics: search matches title or author case-insensitively,
// genre and author filters are exact matches.
func (c *Catalog) ListBooks(filter repository.BookFilter) ([]domain.Book, int) {
	filtered := make([]domain.Book, 0, len(c.books))
	for _, b := range c.books {
		if filter.Search != nil {
			q := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(b.Title), q) &&
				!strings.Contains(strings.ToLower(b.Author), q) {
				continue
			}
		}
		if filter.Genre != nil && b.Genre != *filter.Genre {
			continue
		}
		if filter.Author != nil && b.Author != *filter.Author {
			continue
		}
		filtered = append(filtered, b)
	}

	switch filter.Sort {
	case domain.SortRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].AvgRating > filtered[j].AvgRating
		})
	case domain.SortTitle:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Title < filtered[j].Title
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

	total := len(filtered)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= total {
		return []domain.Book{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]domain.Book, end-start)
	copy(out, filtered[start:end])
	return out, total
}

// GetBook returns the built-in book with the given id.
func (c *Catalog) GetBook(id string) (*domain.Book, error) {
	for _, b := range c.books {
		if b.ID == id {
			book := b
			return &book, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// Reviews returns the built-in reviews for a book, newest first. Books
// without canned reviews get an empty slice.
func (c *Catalog) Reviews(bookID string) []domain.Review {
	reviews, ok := c.reviews[bookID]
	if !ok {
		return []domain.Review{}
	}
	out := make([]domain.Review, len(reviews))
	copy(out, reviews)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Genres returns the distinct genres of the built-in books in dataset order.
func (c *Catalog) Genres() []string {
	return c.distinct(func(b domain.Book) string { return b.Genre })
}

// Authors returns the distinct authors of the built-in books in dataset order.
func (c *Catalog) Authors() []string {
	return c.distinct(func(b domain.Book) string { return b.Author })
}

func (c *Catalog) distinct(key func(domain.Book) string) []string {
	seen := make(map[string]struct{}, len(c.books))
	var out []string
	for _, b := range c.books {
		k := key(b)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func ts(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

func builtinBooks() []domain.Book {
	return []domain.Book{
		{
			ID:          "1",
			Title:       "The Great Gatsby",
			Slug:        "the-great-gatsby",
			Author:      "F. Scott Fitzgerald",
			Genre:       "Classic Literature",
			AvgRating:   4.2,
			ReviewCount: 156,
			CreatedAt:   ts("2024-01-15T10:30:00Z"),
		},
		{
			ID:          "2",
			Title:       "To Kill a Mockingbird",
			Slug:        "to-kill-a-mockingbird",
			Author:      "Harper Lee",
			Genre:       "Classic Literature",
			AvgRating:   4.8,
			ReviewCount: 234,
			CreatedAt:   ts("2024-01-10T14:20:00Z"),
		},
		{
			ID:          "3",
			Title:       "The Catcher in the Rye",
			Slug:        "the-catcher-in-the-rye",
			Author:      "J.D. Salinger",
			Genre:       "Classic Literature",
			AvgRating:   3.9,
			ReviewCount: 189,
			CreatedAt:   ts("2024-01-08T09:15:00Z"),
		},
		{
			ID:          "4",
			Title:       "Dune",
			Slug:        "dune",
			Author:      "Frank Herbert",
			Genre:       "Science Fiction",
			AvgRating:   4.5,
			ReviewCount: 312,
			CreatedAt:   ts("2024-01-05T16:45:00Z"),
		},
		{
			ID:          "5",
			Title:       "The Hobbit",
			Slug:        "the-hobbit",
			Author:      "J.R.R. Tolkien",
			Genre:       "Fantasy",
			AvgRating:   4.7,
			ReviewCount: 445,
			CreatedAt:   ts("2024-01-03T11:30:00Z"),
		},
		{
			ID:          "6",
			Title:       "Pride and Prejudice",
			Slug:        "pride-and-prejudice",
			Author:      "Jane Austen",
			Genre:       "Romance",
			AvgRating:   4.4,
			ReviewCount: 278,
			CreatedAt:   ts("2024-01-01T08:00:00Z"),
		},
	}
}

func builtinReviews() map[string][]domain.Review {
	return map[string][]domain.Review{
		"1": {
			{
				ID:           "1",
				BookID:       "1",
				UserID:       "1",
				ReviewerName: "Emily Johnson",
				Rating:       5,
				Text:         "A masterpiece of American literature. Fitzgerald's prose is absolutely beautiful.",
				CreatedAt:    ts("2024-01-20T14:30:00Z"),
			},
			{
				ID:           "2",
				BookID:       "1",
				UserID:       "2",
				ReviewerName: "Michael Chen",
				Rating:       4,
				Text:         "Great story but the ending felt rushed. Still worth reading.",
				CreatedAt:    ts("2024-01-18T10:15:00Z"),
			},
		},
		"2": {
			{
				ID:           "3",
				BookID:       "2",
				UserID:       "3",
				ReviewerName: "Sarah Williams",
				Rating:       5,
				Text:         "An incredibly powerful story about justice and morality. A must-read.",
				CreatedAt:    ts("2024-01-22T16:45:00Z"),
			},
		},
	}
}
