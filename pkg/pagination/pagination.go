// Package pagination holds the shared page-size policy and page math.
package pagination

// DefaultPerPage is the page size used when the client does not specify one.
const DefaultPerPage = 10

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// TotalPages returns the number of pages needed for totalCount items,
// never less than 1 so callers can always render a page indicator.
func TotalPages(totalCount, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := totalCount / perPage
	if totalCount%perPage > 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}
