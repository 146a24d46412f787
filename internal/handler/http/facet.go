package http

import (
	"log/slog"
	"net/http"

	"github.com/sy17258/Book-Review-Platform/internal/service"
	"github.com/sy17258/Book-Review-Platform/pkg/httputil"
)

// FacetHandler serves the genre and author filter lists.
type FacetHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewFacetHandler creates a new facet HTTP handler.
func NewFacetHandler(svc *service.CatalogService, logger *slog.Logger) *FacetHandler {
	return &FacetHandler{service: svc, logger: logger}
}

// Genres handles GET /api/v1/genres
func (h *FacetHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres := h.service.ListGenres(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: genres})
}

// Authors handles GET /api/v1/authors
func (h *FacetHandler) Authors(w http.ResponseWriter, r *http.Request) {
	authors := h.service.ListAuthors(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: authors})
}
