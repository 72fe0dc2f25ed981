package handler

import (
	"net/http"

	"carenest/internal/gallery/service"
	"carenest/middleware"
	"carenest/pkg/view"

	"github.com/go-chi/chi/v5"
)

type GalleryHandler struct {
	Service *service.GalleryService
}

func NewGalleryHandler(service *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{Service: service}
}

// Index shows the category named by ?category=, or the first one.
func (h *GalleryHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)
	view.Render(w, r, http.StatusOK, user.Username, user.Role, h.Service.Page(r.URL.Query().Get("category")))
}

func (h *GalleryHandler) Category(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !h.Service.HasCategory(category) {
		http.NotFound(w, r)
		return
	}
	user, _ := middleware.CurrentUser(r)
	view.Render(w, r, http.StatusOK, user.Username, user.Role, h.Service.Page(category))
}
