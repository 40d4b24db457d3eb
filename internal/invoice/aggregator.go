package invoice

import (
	"fmt"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Aggregator groups uninvoiced fee events into a payable invoice. The whole
// aggregation is one transaction: either every source event is invoiced and
// exactly one invoice exists, or nothing changed.
type Aggregator struct {
	DB      *gorm.DB
	DueDays int
}

func NewAggregator(db *gorm.DB, dueDays int) *Aggregator {
	if dueDays <= 0 {
		dueDays = 30
	}
	return &Aggregator{DB: db, DueDays: dueDays}
}

// AggregateFeeEvents validates that every event is accrued and uninvoiced,
// shares one investor + deal + currency, then creates the invoice and flips
// the events to invoiced atomically.
func (a *Aggregator) AggregateFeeEvents(eventIDs []uint) (*Invoice, error) {
	if len(eventIDs) == 0 {
		return nil, apperror.Validationf("no fee event ids supplied")
	}

	var created *Invoice
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var events []feeevent.FeeEvent
		if err := db.ForUpdate(tx).
			Where("id IN ?", eventIDs).Find(&events).Error; err != nil {
			return err
		}
		if len(events) != len(eventIDs) {
			return apperror.Validationf("%d of %d fee events not found", len(eventIDs)-len(events), len(eventIDs))
		}

		first := events[0]
		subtotal := decimal.Zero
		lines := make([]InvoiceLine, 0, len(events))
		for i := range events {
			e := &events[i]
			if e.Status != feeevent.StatusAccrued {
				return &apperror.StateConflictError{Entity: "fee event", ID: e.ID, Current: e.Status, Required: feeevent.StatusAccrued}
			}
			if e.InvoiceID != nil {
				return &apperror.StateConflictError{Entity: "fee event", ID: e.ID, Current: "already invoiced", Required: "uninvoiced"}
			}
			if e.InvestorID != first.InvestorID || e.DealID != first.DealID {
				return apperror.Validationf("fee events span multiple investors or deals")
			}
			if e.Currency != first.Currency {
				return apperror.Validationf("fee events span multiple currencies")
			}
			subtotal = subtotal.Add(e.ComputedAmount)
			eventID := e.ID
			lines = append(lines, InvoiceLine{
				FeeEventID:  &eventID,
				Description: fmt.Sprintf("fee event %d (%s)", e.ID, e.EventDate.Format("2006-01-02")),
				Amount:      e.ComputedAmount,
			})
		}

		inv := &Invoice{
			Number:     uuid.NewString(),
			SourceType: SourceFeeEvents,
			InvestorID: first.InvestorID,
			DealID:     first.DealID,
			Subtotal:   subtotal,
			Total:      subtotal,
			PaidAmount: decimal.Zero,
			Currency:   first.Currency,
			Status:     StatusDraft,
			DueDate:    time.Now().UTC().AddDate(0, 0, a.DueDays),
			Lines:      lines,
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		// Guarded update: if a concurrent aggregation claimed any event
		// between the lock and here, the count mismatch rolls us back.
		res := tx.Model(&feeevent.FeeEvent{}).
			Where("id IN ? AND status = ? AND invoice_id IS NULL", eventIDs, feeevent.StatusAccrued).
			Updates(map[string]interface{}{"status": feeevent.StatusInvoiced, "invoice_id": inv.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(eventIDs)) {
			return apperror.Validationf("fee events changed concurrently, aggregation aborted")
		}

		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
