package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(6, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(5, 2))
}

func TestTotalPages_InvalidPerPage(t *testing.T) {
	assert.Equal(t, 1, TotalPages(50, 0))
	assert.Equal(t, 1, TotalPages(50, -1))
}
