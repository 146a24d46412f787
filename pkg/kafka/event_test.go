package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"title": "Dune", "author": "Frank Herbert"}

	event, err := NewEvent("book.created", "b-123", "book", "catalog-service", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "book.created", event.EventType)
	assert.Equal(t, "b-123", event.AggregateID)
	assert.Equal(t, "book", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "catalog-service", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestNewEventUnmarshalableData(t *testing.T) {
	_, err := NewEvent("book.created", "b-123", "book", "catalog-service", make(chan int))
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	event, err := NewEvent("review.created", "r-9", "review", "catalog-service", map[string]any{
		"book_id": "b-123",
		"rating":  5,
	})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload struct {
		BookID string `json:"book_id"`
		Rating int    `json:"rating"`
	}
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "b-123", payload.BookID)
	assert.Equal(t, 5, payload.Rating)
}
