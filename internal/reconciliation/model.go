package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Match statuses. suggested→approved and approved→reversed are the only
// money-relevant transitions; rejected terminates a suggestion without ever
// touching money. Matches are never deleted: reversal preserves the audit
// trail.
const (
	StatusSuggested = "suggested"
	StatusApproved  = "approved"
	StatusReversed  = "reversed"
	StatusRejected  = "rejected"
)

// Match associates one bank transaction with one invoice for a given
// amount.
type Match struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	BankTransactionID uint `gorm:"not null;index" json:"bankTransactionId"`
	InvoiceID         uint `gorm:"not null;index" json:"invoiceId"`

	MatchedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"matchedAmount"`
	Confidence    float64         `gorm:"not null;default:0" json:"confidence"`

	Status      string `gorm:"size:50;not null;default:'suggested';index" json:"status"`
	MatchReason string `gorm:"type:text" json:"matchReason,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Match{})
}
