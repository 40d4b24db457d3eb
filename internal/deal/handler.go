package deal

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Handler serves the deal/subscription/valuation routes.
type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// Create handles POST /deals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var d Deal
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if d.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if err := h.Repo.Create(&d); err != nil {
		http.Error(w, "could not create deal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(d)
}

// List handles GET /deals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List()
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Get handles GET /deals/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	d, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// CreateSubscription handles POST /deals/{id}/subscriptions
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	var s Subscription
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	s.DealID = uint(id)
	if s.InvestorID == 0 {
		http.Error(w, "investorId is required", http.StatusBadRequest)
		return
	}
	if err := h.Repo.CreateSubscription(&s); err != nil {
		http.Error(w, "could not create subscription", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(s)
}

// CreateValuation handles POST /deals/{id}/valuations
func (h *Handler) CreateValuation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	var v Valuation
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	v.DealID = uint(id)
	if v.AsOf.IsZero() {
		http.Error(w, "asOf is required", http.StatusBadRequest)
		return
	}
	if err := h.Repo.CreateValuation(&v); err != nil {
		http.Error(w, "could not create valuation", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}
