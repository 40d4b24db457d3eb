package invoice

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/gorilla/mux"
)

type Handler struct {
	Repo       *Repository
	Aggregator *Aggregator
}

func NewHandler(repo *Repository, agg *Aggregator) *Handler {
	return &Handler{Repo: repo, Aggregator: agg}
}

// invoiceResponse wraps an invoice with its derived effective status so the
// overdue view never needs a stored transition.
type invoiceResponse struct {
	Invoice
	EffectiveStatus string `json:"effectiveStatus"`
}

func respond(w http.ResponseWriter, status int, inv *Invoice) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(invoiceResponse{Invoice: *inv, EffectiveStatus: inv.EffectiveStatus(time.Now().UTC())})
}

// Aggregate handles POST /invoices/aggregate
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FeeEventIDs []uint `json:"feeEventIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	inv, err := h.Aggregator.AggregateFeeEvents(payload.FeeEventIDs)
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	respond(w, http.StatusCreated, inv)
}

// List handles GET /invoices?dealId=&status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var dealID uint
	if q := r.URL.Query().Get("dealId"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "invalid dealId", http.StatusBadRequest)
			return
		}
		dealID = uint(v)
	}
	list, err := h.Repo.List(dealID, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "could not list invoices", http.StatusInternalServerError)
		return
	}
	now := time.Now().UTC()
	out := make([]invoiceResponse, 0, len(list))
	for i := range list {
		out = append(out, invoiceResponse{Invoice: list[i], EffectiveStatus: list[i].EffectiveStatus(now)})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Get handles GET /invoices/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	respond(w, http.StatusOK, inv)
}

// Send handles POST /invoices/{id}/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := MarkSent(h.Repo.DB, uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	respond(w, http.StatusOK, inv)
}

// CancelInvoice handles POST /invoices/{id}/cancel
func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := Cancel(h.Repo.DB, uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	respond(w, http.StatusOK, inv)
}
