package domain

import (
	"time"
)

// Review text length bounds, applied after trimming whitespace.
const (
	MinReviewTextLen = 10
	MaxReviewTextLen = 500
)

// Review represents a review submitted by a user for a book.
type Review struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	UserID       string    `json:"user_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}
