package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sy17258/Book-Review-Platform/internal/domain"
	"github.com/sy17258/Book-Review-Platform/internal/service"
	"github.com/sy17258/Book-Review-Platform/pkg/httputil"
	"github.com/sy17258/Book-Review-Platform/pkg/pagination"
	"github.com/sy17258/Book-Review-Platform/pkg/validator"
)

// BookHandler handles HTTP requests for catalogue endpoints.
type BookHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(svc *service.CatalogService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateBookRequest is the JSON request body for adding a book.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=500"`
	Author        string `json:"author" validate:"required,min=1,max=200"`
	Genre         string `json:"genre" validate:"required,min=1,max=100"`
	Description   string `json:"description" validate:"max=5000"`
	CoverImageURL string `json:"cover_image_url" validate:"omitempty,url"`
	PublishedYear *int   `json:"published_year" validate:"omitempty,gte=0,lte=2100"`
}

// --- Handlers ---

// ListBooks handles GET /api/v1/books
// @Summary List books
// @Description Returns a paginated page of the catalogue with optional filtering and sorting
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Param genre query string false "Filter by exact genre"
// @Param author query string false "Filter by exact author"
// @Param search query string false "Case-insensitive title or author search"
// @Param sort query string false "Sort order" Enums(newest,rating,title)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/books [get]
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	input := service.ListBooksInput{
		Page:    1,
		PerPage: pagination.DefaultPerPage,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		input.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > pagination.MaxPerPage {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		input.PerPage = perPage
	}
	if v := r.URL.Query().Get("genre"); v != "" {
		input.Genre = &v
	}
	if v := r.URL.Query().Get("author"); v != "" {
		input.Author = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		input.Search = &v
	}
	if v := r.URL.Query().Get("sort"); v != "" {
		if !domain.IsValidSort(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "sort must be one of: " + strings.Join(domain.ValidSorts(), ", ")},
			})
			return
		}
		input.Sort = v
	}

	result := h.service.ListBooks(r.Context(), input)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetBook handles GET /api/v1/books/{id}
// @Summary Get a book with its reviews
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	detail, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// CreateBook handles POST /api/v1/books
// @Summary Add a book to the catalogue
// @Tags books
// @Accept json
// @Produce json
// @Param request body CreateBookRequest true "Book to add"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/books [post]
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		PublishedYear: req.PublishedYear,
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}
