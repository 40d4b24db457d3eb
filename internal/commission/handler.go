package commission

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/auth"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Handler serves the commission routes. One ledger per kind, fixed at
// startup; unknown kinds are a validation error, never a lookup.
type Handler struct {
	Introducer        *Ledger
	Partner           *Ledger
	CommercialPartner *Ledger
}

func NewHandler(introducer, partner, commercialPartner *Ledger) *Handler {
	return &Handler{
		Introducer:        introducer,
		Partner:           partner,
		CommercialPartner: commercialPartner,
	}
}

func (h *Handler) ledgerFor(kind Kind) *Ledger {
	switch kind {
	case KindIntroducer:
		return h.Introducer
	case KindPartner:
		return h.Partner
	case KindCommercialPartner:
		return h.CommercialPartner
	}
	return nil
}

func callerOr401(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	c, ok := auth.CallerFrom(r.Context())
	if !ok {
		http.Error(w, "missing caller", http.StatusUnauthorized)
	}
	return c, ok
}

// Accrue handles POST /commissions
func (h *Handler) Accrue(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerOr401(w, r); !ok {
		return
	}
	var payload struct {
		Kind          Kind            `json:"kind"`
		PayeeEntityID uint            `json:"payeeEntityId"`
		ArrangerID    uint            `json:"arrangerId"`
		DealID        uint            `json:"dealId"`
		AccrualAmount decimal.Decimal `json:"accrualAmount"`
		Currency      string          `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	c := &Commission{
		PayeeEntityID: payload.PayeeEntityID,
		ArrangerID:    payload.ArrangerID,
		DealID:        payload.DealID,
		AccrualAmount: payload.AccrualAmount,
		Currency:      payload.Currency,
	}
	if err := ledger.Accrue(c); err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

// List handles GET /commissions?kind=&payeeId=&dealId=&status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerOr401(w, r); !ok {
		return
	}
	kind := Kind(r.URL.Query().Get("kind"))
	ledger := h.ledgerFor(kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	status := r.URL.Query().Get("status")

	if q := r.URL.Query().Get("payeeId"); q != "" {
		payeeID, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "invalid payeeId", http.StatusBadRequest)
			return
		}
		list, err := ledger.Repo.ListByPayee(uint(payeeID), status)
		if err != nil {
			http.Error(w, "could not list commissions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
		return
	}

	dealID, err := strconv.Atoi(r.URL.Query().Get("dealId"))
	if err != nil {
		http.Error(w, "payeeId or dealId is required", http.StatusBadRequest)
		return
	}
	list, err := ledger.Repo.ListByDeal(uint(dealID), status)
	if err != nil {
		http.Error(w, "could not list commissions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// RequestPayout handles POST /commissions/payout-requests
func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	var payload struct {
		Kind          Kind   `json:"kind"`
		CommissionIDs []uint `json:"commissionIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	inv, err := ledger.RequestPayout(caller, payload.CommissionIDs)
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(inv)
}

// SubmitInvoice handles POST /commissions/{id}/invoice
func (h *Handler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Kind     Kind   `json:"kind"`
		FileName string `json:"fileName"`
		Content  string `json:"content"` // base64
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	content, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		http.Error(w, "content must be base64", http.StatusBadRequest)
		return
	}
	c, err := ledger.SubmitInvoiceDocument(caller, uint(id), content, payload.FileName)
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// ApproveInvoice handles POST /commissions/{id}/approve-invoice
func (h *Handler) ApproveInvoice(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Kind Kind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	c, err := ledger.ApproveInvoice(caller, uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// ConfirmPayment handles POST /commissions/{id}/confirm-payment
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Kind Kind `json:"kind"`
		ConfirmPaymentInput
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	c, err := ledger.ConfirmPayment(caller, uint(id), payload.ConfirmPaymentInput)
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// Cancel handles POST /commissions/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Kind Kind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	ledger := h.ledgerFor(payload.Kind)
	if ledger == nil {
		http.Error(w, "unknown commission kind", http.StatusBadRequest)
		return
	}
	c, err := ledger.Cancel(caller, uint(id))
	if err != nil {
		http.Error(w, err.Error(), apperror.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}
