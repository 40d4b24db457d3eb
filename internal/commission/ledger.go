package commission

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/audit"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/auth"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/invoice"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/notification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger drives the payment lifecycle for one commission kind. Build one
// per variant at startup; the kind is fixed at compile time, not dispatched
// from request data.
type Ledger struct {
	Repo     *Repository
	Notifier notification.Notifier
	Audit    *audit.Store
	DueDays  int
}

func NewLedger(db *gorm.DB, kind Kind, notifier notification.Notifier, auditStore *audit.Store, dueDays int) *Ledger {
	if dueDays <= 0 {
		dueDays = 30
	}
	return &Ledger{
		Repo:     NewRepository(db, kind),
		Notifier: notifier,
		Audit:    auditStore,
		DueDays:  dueDays,
	}
}

// Accrue records a new commission obligation. Triggered by deal-lifecycle
// events (funding confirmation, deal close), not by invoicing.
func (l *Ledger) Accrue(c *Commission) error {
	if c.PayeeEntityID == 0 || c.ArrangerID == 0 || c.DealID == 0 {
		return apperror.Validationf("payeeEntityId, arrangerId and dealId are required")
	}
	if c.AccrualAmount.LessThanOrEqual(decimal.Zero) {
		return apperror.Validationf("accrualAmount must be positive")
	}
	if c.Currency == "" {
		return apperror.Validationf("currency is required")
	}
	c.Status = StatusAccrued
	c.InvoiceID = nil
	return l.Repo.Create(c)
}

// RequestPayout moves a set of accrued commissions to invoice_requested and
// creates the draft invoice that will carry their payout. All referenced
// commissions must be accrued and share one payee + arranger pair (and,
// since an invoice is deal- and currency-scoped, one deal and currency).
// The whole request is one transaction.
func (l *Ledger) RequestPayout(caller auth.Caller, ids []uint) (*invoice.Invoice, error) {
	if len(ids) == 0 {
		return nil, apperror.Validationf("no commission ids supplied")
	}

	var created *invoice.Invoice
	err := l.Repo.DB.Transaction(func(tx *gorm.DB) error {
		repo := l.Repo.WithDB(tx)
		list, err := repo.FindByIDsForUpdate(ids)
		if err != nil {
			return err
		}
		if len(list) != len(ids) {
			return apperror.Validationf("%d of %d commissions not found", len(ids)-len(list), len(ids))
		}

		first := list[0]
		total := decimal.Zero
		lines := make([]invoice.InvoiceLine, 0, len(list))
		for i := range list {
			c := &list[i]
			if c.Status != StatusAccrued {
				return &apperror.StateConflictError{Entity: "commission", ID: c.ID, Current: c.Status, Required: StatusAccrued}
			}
			if c.PayeeEntityID != first.PayeeEntityID || c.ArrangerID != first.ArrangerID {
				return apperror.Validationf("commissions span multiple payee/arranger pairs")
			}
			if c.DealID != first.DealID || c.Currency != first.Currency {
				return apperror.Validationf("commissions span multiple deals or currencies")
			}
			total = total.Add(c.AccrualAmount)
			commissionID := c.ID
			lines = append(lines, invoice.InvoiceLine{
				CommissionID: &commissionID,
				Description:  fmt.Sprintf("%s commission %d", l.Repo.Kind, c.ID),
				Amount:       c.AccrualAmount,
			})
		}

		payeeID := first.PayeeEntityID
		inv := &invoice.Invoice{
			Number:        uuid.NewString(),
			SourceType:    invoice.SourceCommissions,
			DealID:        first.DealID,
			PayeeEntityID: &payeeID,
			Subtotal:      total,
			Total:         total,
			PaidAmount:    decimal.Zero,
			Currency:      first.Currency,
			Status:        invoice.StatusDraft,
			DueDate:       time.Now().UTC().AddDate(0, 0, l.DueDays),
			Lines:         lines,
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		res := tx.Model(&Commission{}).
			Where("id IN ? AND kind = ? AND status = ?", ids, l.Repo.Kind, StatusAccrued).
			Updates(map[string]interface{}{"status": StatusInvoiceRequested, "invoice_id": inv.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return apperror.Validationf("commissions changed concurrently, payout request aborted")
		}

		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Audit.Append(caller.UserID, "commission.payout_requested", "invoice", created.ID, fmt.Sprintf("kind=%s commissions=%v", l.Repo.Kind, ids))
	return created, nil
}

// SubmitInvoiceDocument attaches an uploaded invoice document to a
// requested payout and moves the commission to invoice_submitted.
func (l *Ledger) SubmitInvoiceDocument(caller auth.Caller, id uint, content []byte, fileName string) (*Commission, error) {
	if len(content) == 0 {
		return nil, apperror.Validationf("document content is empty")
	}
	c, err := l.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusInvoiceRequested {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: c.Status, Required: StatusInvoiceRequested}
	}

	docID, err := l.Audit.StoreDocument(content, fileName, caller.UserID)
	if err != nil {
		return nil, &apperror.DependencyError{Dependency: "document store", Err: err}
	}

	moved, err := l.Repo.GuardedTransition(id, StatusInvoiceRequested, StatusInvoiceSubmitted,
		map[string]interface{}{"document_id": docID})
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: "changed concurrently", Required: StatusInvoiceRequested}
	}

	l.Audit.Append(caller.UserID, "commission.invoice_submitted", "commission", id, "document="+docID)
	return l.Repo.FindByID(id)
}

// ApproveInvoice accepts a submitted invoice document and marks the
// commission invoiced, sending the underlying invoice. Staff only.
func (l *Ledger) ApproveInvoice(caller auth.Caller, id uint) (*Commission, error) {
	if !caller.HasRole(auth.RoleStaff) {
		return nil, &apperror.AuthorizationError{Msg: "approving commission invoices requires staff"}
	}
	c, err := l.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusInvoiceSubmitted {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: c.Status, Required: StatusInvoiceSubmitted}
	}
	if c.InvoiceID == nil {
		return nil, apperror.Validationf("commission %d has no invoice reference", id)
	}

	moved, err := l.Repo.GuardedTransition(id, StatusInvoiceSubmitted, StatusInvoiced, nil)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: "changed concurrently", Required: StatusInvoiceSubmitted}
	}

	if _, err := invoice.MarkSent(l.Repo.DB, *c.InvoiceID); err != nil {
		// The linked invoice may already be sent when several commissions
		// share it; that is not a conflict for this commission.
		var sc *apperror.StateConflictError
		if !errors.As(err, &sc) {
			return nil, err
		}
	}

	l.Audit.Append(caller.UserID, "commission.invoiced", "commission", id, "")
	return l.Repo.FindByID(id)
}

// ConfirmPaymentInput carries the optional payment evidence.
type ConfirmPaymentInput struct {
	BankReference string     `json:"bankReference,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ConfirmPayment moves an invoiced commission to paid. Authorization is an
// assignment check against the specific deal, not a blanket role check. The
// status guard makes double confirmation impossible: of two concurrent
// calls, exactly one sees the row still invoiced.
func (l *Ledger) ConfirmPayment(caller auth.Caller, id uint, in ConfirmPaymentInput) (*Commission, error) {
	c, err := l.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAssignedTo(c.DealID) {
		return nil, &apperror.AuthorizationError{Msg: fmt.Sprintf("caller is not assigned to deal %d", c.DealID)}
	}
	if c.Status != StatusInvoiced {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: c.Status, Required: StatusInvoiced}
	}

	now := time.Now().UTC()
	paymentDate := in.PaymentDate
	if paymentDate == nil {
		paymentDate = &now
	}
	moved, err := l.Repo.GuardedTransition(id, StatusInvoiced, StatusPaid, map[string]interface{}{
		"paid_at":        now,
		"approved_at":    now,
		"payment_date":   paymentDate,
		"bank_reference": in.BankReference,
		"notes":          in.Notes,
	})
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: "changed concurrently", Required: StatusInvoiced}
	}

	paid, err := l.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	// Best effort: a notification failure never rolls back the payment.
	msg := fmt.Sprintf("Commission %d (%s) confirmed paid", id, l.Repo.Kind)
	l.Notifier.Notify(notification.Notice{UserID: paid.PayeeEntityID, Title: "Commission paid", Message: msg})
	l.Notifier.Notify(notification.Notice{UserID: paid.ArrangerID, Title: "Commission paid", Message: msg})
	l.Notifier.Notify(notification.Notice{UserID: 0, Title: "Commission paid", Message: msg}) // staff broadcast

	l.Audit.Append(caller.UserID, "commission.paid", "commission", id, "bankRef="+in.BankReference)
	return paid, nil
}

// Cancel terminates a commission from any non-paid state.
func (l *Ledger) Cancel(caller auth.Caller, id uint) (*Commission, error) {
	c, err := l.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusPaid {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: c.Status, Required: "any non-paid state"}
	}
	if c.Status == StatusCancelled {
		return c, nil
	}
	moved, err := l.Repo.GuardedTransition(id, c.Status, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, &apperror.StateConflictError{Entity: "commission", ID: id, Current: "changed concurrently", Required: c.Status}
	}
	l.Audit.Append(caller.UserID, "commission.cancelled", "commission", id, "")
	return l.Repo.FindByID(id)
}
