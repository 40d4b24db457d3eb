package reconciliation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/auth"
	"github.com/gorilla/mux"
)

type Handler struct {
	Matcher *Matcher
	Service *Service
}

func NewHandler(matcher *Matcher, service *Service) *Handler {
	return &Handler{Matcher: matcher, Service: service}
}

func actorFrom(r *http.Request) uint {
	if c, ok := auth.CallerFrom(r.Context()); ok {
		return c.UserID
	}
	return 0
}

// Propose handles POST /reconciliation/propose
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Matcher.Propose()
	if err != nil {
		http.Error(w, "could not propose matches", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(matches)
}

// Approve handles POST /matches/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	m, err := h.Service.Approve(actorFrom(r), uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

// Reject handles POST /matches/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	m, err := h.Service.Reject(actorFrom(r), uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

// Reverse handles POST /matches/{id}/reverse
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	m, err := h.Service.Reverse(actorFrom(r), uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

// Unmatch handles POST /bank-transactions/{id}/unmatch
func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}
	res, err := h.Service.UnmatchTransaction(actorFrom(r), uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// ListForTransaction handles GET /bank-transactions/{id}/matches
func (h *Handler) ListForTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}
	list, err := h.Service.ListForTransaction(uint(id))
	if err != nil {
		http.Error(w, "could not list matches", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
