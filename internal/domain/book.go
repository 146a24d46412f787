package domain

import (
	"time"
)

// Sort order constants for book listings.
const (
	SortNewest = "newest"
	SortRating = "rating"
	SortTitle  = "title"
)

// Book represents a book in the catalogue, including review aggregates.
// AvgRating and ReviewCount come from the stats view; when the catalogue is
// served from the base table or the built-in dataset without stats, both are
// zero.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	CoverImageURL string    `json:"cover_image_url"`
	Genre         string    `json:"genre"`
	PublishedYear *int      `json:"published_year,omitempty"`
	AvgRating     float64   `json:"avg_rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ApplyReview folds a newly submitted rating into the book's aggregates.
// This mirrors what the stats view will report after the review lands, so
// callers can return an updated book without a second read.
func (b *Book) ApplyReview(rating int) {
	total := b.AvgRating*float64(b.ReviewCount) + float64(rating)
	b.ReviewCount++
	b.AvgRating = total / float64(b.ReviewCount)
}

// ValidSorts returns the set of valid sort orders for book listings.
func ValidSorts() []string {
	return []string{SortNewest, SortRating, SortTitle}
}

// IsValidSort checks whether the given sort string is a recognised sort order.
func IsValidSort(sort string) bool {
	for _, s := range ValidSorts() {
		if s == sort {
			return true
		}
	}
	return false
}
