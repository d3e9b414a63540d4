package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linqiu/polychat/backend/internal/model/catalog"
	"github.com/linqiu/polychat/backend/pkg/utils"
)

// Handler serves the static model catalog. No authentication required.
type Handler struct {
	models catalog.Store
}

// New creates the catalog handler.
func New(models catalog.Store) *Handler {
	return &Handler{models: models}
}

// RegisterRoutes mounts the catalog endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.models.List())
}
