package feeevent

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/gorilla/mux"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// ListByDeal handles GET /deals/{id}/fee-events?status=
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	events, err := h.Repo.ListByDeal(uint(id), r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "could not list fee events", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

// Void handles POST /fee-events/{id}/void
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid fee event id", http.StatusBadRequest)
		return
	}
	e, err := h.Repo.Void(uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(e)
}
