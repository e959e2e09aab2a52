package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BlogHandler handles blog generation and listing endpoints.
type BlogHandler struct {
	blogService service.BlogService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(blogService service.BlogService, v *validator.Validate, logger zerolog.Logger) *BlogHandler {
	return &BlogHandler{blogService: blogService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 blog routes.
func (h *BlogHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/blogs", authMw(http.HandlerFunc(h.handleBlogs)))
	mux.Handle("/blogs/", authMw(http.HandlerFunc(h.getBlog)))
}

func (h *BlogHandler) handleBlogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createBlog(w, r)
	case http.MethodGet:
		h.listBlogs(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *BlogHandler) createBlog(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.BlogCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrEmptyPrompt.Error())
		return
	}

	blogID, err := h.blogService.GenerateAndPublish(r.Context(), userID, req.Prompt)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(dto.BlogCreateResponseDTO{BlogID: blogID})
}

func (h *BlogHandler) listBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.ListBlogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}

	resp := make([]dto.BlogResponseDTO, 0, len(blogs))
	for _, b := range blogs {
		resp = append(resp, dto.BlogResponseDTO{
			ID:        b.ID,
			Title:     b.Title,
			Content:   b.Content,
			ImageURL:  b.ImageURL,
			AuthorID:  b.AuthorID,
			CreatedAt: b.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *BlogHandler) getBlog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/blogs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := h.blogService.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch blog")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.BlogResponseDTO{
		ID:        blog.ID,
		Title:     blog.Title,
		Content:   blog.Content,
		ImageURL:  blog.ImageURL,
		AuthorID:  blog.AuthorID,
		CreatedAt: blog.CreatedAt,
	})
}

// writeWorkflowError maps generate-and-publish failures to statuses.
// The insufficient-credits case carries an upsell marker so the client
// can open the purchase flow instead of a plain error toast.
func (h *BlogHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientCredits):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  service.ErrInsufficientCredits.Error(),
			"upsell": true,
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "generation timed out, please try again")
	case errors.Is(err, service.ErrGeneration), errors.Is(err, service.ErrStorage):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Blog generation failed")
		writeError(w, http.StatusInternalServerError, service.ErrPersist.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
