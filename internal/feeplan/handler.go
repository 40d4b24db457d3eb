package feeplan

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// Create handles POST /fee-plans
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p FeePlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	for i := range p.Components {
		if msg := validateComponent(&p.Components[i]); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
	}
	p.IsActive = true
	if err := h.Repo.Create(&p); err != nil {
		http.Error(w, "could not create fee plan", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// List handles GET /fee-plans
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Repo.List()
	if err != nil {
		http.Error(w, "could not list fee plans", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(plans)
}

// Get handles GET /fee-plans/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return
	}
	p, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "fee plan not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// Archive handles POST /fee-plans/{id}/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return
	}
	if err := h.Repo.Archive(uint(id)); err != nil {
		http.Error(w, "fee plan not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddComponent handles POST /fee-plans/{id}/components
// Components are immutable once referenced: there is no update route.
func (h *Handler) AddComponent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return
	}
	var c FeeComponent
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	c.FeePlanID = uint(id)
	if msg := validateComponent(&c); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if err := h.Repo.AddComponent(&c); err != nil {
		http.Error(w, "could not add component", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

func validateComponent(c *FeeComponent) string {
	if !validKinds[c.Kind] {
		return "invalid component kind"
	}
	if !validCalcMethods[c.CalcMethod] {
		return "invalid calcMethod"
	}
	if c.Frequency == "" {
		c.Frequency = FreqOneTime
	}
	if !validFrequencies[c.Frequency] {
		return "invalid frequency"
	}
	if !validBases[c.BasisReference] {
		return "invalid basisReference"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	return ""
}
