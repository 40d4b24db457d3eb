package accrual

import (
	"fmt"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/deal"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/shopspring/decimal"
)

// Scheduler iterates a deal's active fee plans and upserts fee events.
type Scheduler struct {
	Deals  *deal.Repository
	Plans  *feeplan.Repository
	Events *feeevent.Repository
}

func NewScheduler(deals *deal.Repository, plans *feeplan.Repository, events *feeevent.Repository) *Scheduler {
	return &Scheduler{Deals: deals, Plans: plans, Events: events}
}

// Result reports one accrual run. A second run for the same date creates 0
// events and is not an error.
type Result struct {
	EventsCreated int                  `json:"eventsCreated"`
	Errors        []apperror.ItemError `json:"errors,omitempty"`
}

// ComputeFeeEvents evaluates every component of the applicable plan for each
// investor in the deal and upserts one event per (component, investor,
// period). Items are processed sequentially; a failing component is recorded
// and the batch continues.
func (s *Scheduler) ComputeFeeEvents(dealID uint, asOf time.Time) (*Result, error) {
	d, err := s.Deals.FindByID(dealID)
	if err != nil {
		return nil, apperror.Validationf("deal %d not found", dealID)
	}
	plans, err := s.Plans.ActiveForDeal(dealID)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return &Result{}, nil
	}
	subs, err := s.Deals.SubscriptionsForDeal(dealID)
	if err != nil {
		return nil, err
	}
	valuation, err := s.Deals.LatestValuation(dealID, asOf)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	idx := 0
	for _, sub := range subs {
		plan := resolvePlan(plans, sub.SelectedFeePlanID)
		if plan == nil {
			continue
		}
		basis := basisFor(sub, valuation)
		for i := range plan.Components {
			comp := &plan.Components[i]
			idx++
			created, err := s.accrueComponent(d, comp, sub, basis, asOf)
			if err != nil {
				res.Add(idx, fmt.Sprintf("component %d investor %d", comp.ID, sub.InvestorID), err)
				continue
			}
			if created {
				res.EventsCreated++
			}
		}
	}
	return res, nil
}

// Add records a per-item failure on the result.
func (r *Result) Add(index int, ref string, err error) {
	r.Errors = append(r.Errors, apperror.ItemError{Index: index, Ref: ref, Error: err.Error()})
}

func (s *Scheduler) accrueComponent(d *deal.Deal, comp *feeplan.FeeComponent, sub deal.Subscription, basis Basis, asOf time.Time) (bool, error) {
	amount, ok, err := Evaluate(comp, basis, asOf)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	currency := comp.Currency
	if currency == "" {
		currency = d.Currency
	}
	event := &feeevent.FeeEvent{
		FeeComponentID: comp.ID,
		InvestorID:     sub.InvestorID,
		EventDate:      PeriodStart(comp.Frequency, asOf),
		DealID:         d.ID,
		VehicleID:      d.VehicleID,
		ComputedAmount: amount,
		Currency:       currency,
		Status:         feeevent.StatusAccrued,
	}
	return s.Events.Upsert(event)
}

// resolvePlan picks the subscription's explicit plan when it is active,
// falling back to the deal's default plan.
func resolvePlan(plans []feeplan.FeePlan, selected *uint) *feeplan.FeePlan {
	if selected != nil {
		for i := range plans {
			if plans[i].ID == *selected {
				return &plans[i]
			}
		}
	}
	for i := range plans {
		if plans[i].IsDefault {
			return &plans[i]
		}
	}
	return nil
}

func basisFor(sub deal.Subscription, v *deal.Valuation) Basis {
	b := Basis{
		Commitment:   sub.Commitment,
		FundedAmount: sub.FundedAmount,
		UnitsTraded:  sub.UnitsTraded,
	}
	if v != nil {
		b.NAV = v.NAV
		b.HighWaterMark = v.HighWaterMark
	} else {
		b.NAV = decimal.Zero
		b.HighWaterMark = decimal.Zero
	}
	return b
}
