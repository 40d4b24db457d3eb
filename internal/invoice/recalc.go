package invoice

import (
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/money"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeriveStatus re-derives the payment status from accumulated applied
// amounts. Pure: same inputs, same answer.
func DeriveStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.LessThanOrEqual(money.Tolerance):
		return StatusSent
	case paid.GreaterThanOrEqual(total.Sub(money.Tolerance)):
		return StatusPaid
	default:
		return StatusPartiallyPaid
	}
}

// ApplyPayment adds an approved match amount to the invoice under a row
// lock and re-derives its status, cascading paid status to the attached
// fee events when the invoice settles. Must run inside a transaction.
func ApplyPayment(tx *gorm.DB, invoiceID uint, amount decimal.Decimal) (*Invoice, error) {
	var inv Invoice
	if err := db.ForUpdate(tx).First(&inv, invoiceID).Error; err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, &apperror.StateConflictError{Entity: "invoice", ID: invoiceID, Current: inv.Status, Required: "not cancelled"}
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.Status = DeriveStatus(inv.PaidAmount, inv.Total)
	if err := tx.Model(&Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]interface{}{"paid_amount": inv.PaidAmount, "status": inv.Status}).Error; err != nil {
		return nil, err
	}

	if inv.Status == StatusPaid {
		if err := tx.Model(&feeevent.FeeEvent{}).
			Where("invoice_id = ? AND status = ?", inv.ID, feeevent.StatusInvoiced).
			Update("status", feeevent.StatusPaid).Error; err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

// RevertPayment removes a previously applied amount, clamping at zero, and
// re-derives the status. If the invoice is no longer paid, fee events that
// had settled revert to invoiced: reversal must cascade to the obligations
// it previously satisfied. Must run inside a transaction.
func RevertPayment(tx *gorm.DB, invoiceID uint, amount decimal.Decimal) (*Invoice, error) {
	var inv Invoice
	if err := db.ForUpdate(tx).First(&inv, invoiceID).Error; err != nil {
		return nil, err
	}

	newPaid := inv.PaidAmount.Sub(amount)
	if newPaid.IsNegative() {
		newPaid = decimal.Zero
	}
	inv.PaidAmount = newPaid
	inv.Status = DeriveStatus(newPaid, inv.Total)
	if err := tx.Model(&Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]interface{}{"paid_amount": inv.PaidAmount, "status": inv.Status}).Error; err != nil {
		return nil, err
	}

	if inv.Status != StatusPaid {
		if err := tx.Model(&feeevent.FeeEvent{}).
			Where("invoice_id = ? AND status = ?", inv.ID, feeevent.StatusPaid).
			Update("status", feeevent.StatusInvoiced).Error; err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

// MarkSent moves a draft invoice to sent with a status-guard update so two
// concurrent sends cannot both succeed.
func MarkSent(db *gorm.DB, invoiceID uint) (*Invoice, error) {
	now := time.Now().UTC()
	res := db.Model(&Invoice{}).
		Where("id = ? AND status = ?", invoiceID, StatusDraft).
		Updates(map[string]interface{}{"status": StatusSent, "sent_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var inv Invoice
		if err := db.First(&inv, invoiceID).Error; err != nil {
			return nil, err
		}
		return nil, &apperror.StateConflictError{Entity: "invoice", ID: invoiceID, Current: inv.Status, Required: StatusDraft}
	}
	var inv Invoice
	if err := db.Preload("Lines").First(&inv, invoiceID).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Cancel voids an invoice that has no applied payments.
func Cancel(db *gorm.DB, invoiceID uint) (*Invoice, error) {
	var inv Invoice
	if err := db.First(&inv, invoiceID).Error; err != nil {
		return nil, err
	}
	if !inv.PaidAmount.LessThanOrEqual(money.Tolerance) {
		return nil, &apperror.StateConflictError{Entity: "invoice", ID: invoiceID, Current: "has payments", Required: "no applied payments"}
	}
	if inv.Status == StatusCancelled {
		return nil, &apperror.StateConflictError{Entity: "invoice", ID: invoiceID, Current: inv.Status, Required: "draft or sent"}
	}
	res := db.Model(&Invoice{}).
		Where("id = ? AND status IN ?", invoiceID, []string{StatusDraft, StatusSent}).
		Update("status", StatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperror.StateConflictError{Entity: "invoice", ID: invoiceID, Current: inv.Status, Required: "draft or sent"}
	}
	inv.Status = StatusCancelled
	return &inv, nil
}
