package invoice

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses. Overdue is a derived view over sent/partially_paid and
// the due date, never stored.
const (
	StatusDraft         = "draft"
	StatusSent          = "sent"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusOverdue       = "overdue"
	StatusCancelled     = "cancelled"
)

// Invoice sources.
const (
	SourceFeeEvents   = "fee_events"
	SourceCommissions = "commissions"
)

// InvoiceLine is one aggregated obligation on an invoice. Exactly one of
// FeeEventID / CommissionID is set, depending on the invoice source.
type InvoiceLine struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"not null;index" json:"invoiceId"`

	FeeEventID   *uint `gorm:"uniqueIndex" json:"feeEventId,omitempty"`
	CommissionID *uint `gorm:"uniqueIndex" json:"commissionId,omitempty"`

	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`

	CreatedAt time.Time `json:"createdAt"`
}

// Invoice aggregates obligations into one payable document. PaidAmount is
// always the sum of matchedAmount over currently-approved reconciliation
// matches; nothing else may touch it.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Number     string `gorm:"size:36;uniqueIndex;not null" json:"number"`
	SourceType string `gorm:"size:50;not null;default:'fee_events'" json:"sourceType"`

	InvestorID    uint  `gorm:"index" json:"investorId"`
	DealID        uint  `gorm:"not null;index" json:"dealId"`
	PayeeEntityID *uint `gorm:"index" json:"payeeEntityId,omitempty"`

	Subtotal   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	Total      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paidAmount"`
	Currency   string          `gorm:"size:3;not null" json:"currency"`

	Status  string     `gorm:"size:50;not null;default:'draft';index" json:"status"`
	DueDate time.Time  `gorm:"not null" json:"dueDate"`
	SentAt  *time.Time `json:"sentAt,omitempty"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Invoice{}, &InvoiceLine{})
}

// EffectiveStatus derives the overdue view: a sent or partially paid invoice
// past its due date reads as overdue without a stored transition.
func (i *Invoice) EffectiveStatus(now time.Time) string {
	if (i.Status == StatusSent || i.Status == StatusPartiallyPaid) && now.After(i.DueDate) {
		return StatusOverdue
	}
	return i.Status
}
