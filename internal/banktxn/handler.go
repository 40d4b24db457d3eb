package banktxn

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/gorilla/mux"
)

type Handler struct {
	Repo     *Repository
	Importer *Importer
}

func NewHandler(repo *Repository, importer *Importer) *Handler {
	return &Handler{Repo: repo, Importer: importer}
}

// Import handles POST /bank-transactions/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Rows []ImportRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	res, err := h.Importer.Import(payload.Rows)
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// List handles GET /bank-transactions?status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "could not list bank transactions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Get handles GET /bank-transactions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}
	t, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "bank transaction not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}
