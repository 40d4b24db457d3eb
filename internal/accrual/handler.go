package accrual

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type Handler struct {
	Scheduler *Scheduler
}

func NewHandler(s *Scheduler) *Handler {
	return &Handler{Scheduler: s}
}

// Compute handles POST /deals/{id}/fee-events/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	var payload struct {
		AsOf string `json:"asOf"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	asOf, err := time.Parse("2006-01-02", payload.AsOf)
	if err != nil {
		http.Error(w, "asOf must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	res, err := h.Scheduler.ComputeFeeEvents(uint(dealID), asOf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// estimateItem is one evaluated component in the estimate view. Estimates
// are computed on read and never persisted as fee events.
type estimateItem struct {
	FeeComponentID uint            `json:"feeComponentId"`
	InvestorID     uint            `json:"investorId"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// Estimate handles GET /deals/{id}/fee-estimate?asOf=YYYY-MM-DD
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	asOf := time.Now().UTC()
	if q := r.URL.Query().Get("asOf"); q != "" {
		asOf, err = time.Parse("2006-01-02", q)
		if err != nil {
			http.Error(w, "asOf must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	s := h.Scheduler
	d, err := s.Deals.FindByID(uint(dealID))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	plans, err := s.Plans.ActiveForDeal(d.ID)
	if err != nil {
		http.Error(w, "could not load fee plans", http.StatusInternalServerError)
		return
	}
	subs, err := s.Deals.SubscriptionsForDeal(d.ID)
	if err != nil {
		http.Error(w, "could not load subscriptions", http.StatusInternalServerError)
		return
	}
	valuation, err := s.Deals.LatestValuation(d.ID, asOf)
	if err != nil {
		http.Error(w, "could not load valuation", http.StatusInternalServerError)
		return
	}

	items := []estimateItem{}
	for _, sub := range subs {
		plan := resolvePlan(plans, sub.SelectedFeePlanID)
		if plan == nil {
			continue
		}
		basis := basisFor(sub, valuation)
		for i := range plan.Components {
			comp := &plan.Components[i]
			amount, ok, err := Evaluate(comp, basis, asOf)
			if err != nil || !ok {
				continue
			}
			items = append(items, estimateItem{
				FeeComponentID: comp.ID,
				InvestorID:     sub.InvestorID,
				Kind:           comp.Kind,
				Amount:         amount,
				Currency:       componentCurrency(comp, d.Currency),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"estimate": true,
		"asOf":     asOf.Format("2006-01-02"),
		"items":    items,
	})
}

func componentCurrency(c *feeplan.FeeComponent, fallback string) string {
	if c.Currency != "" {
		return c.Currency
	}
	return fallback
}
