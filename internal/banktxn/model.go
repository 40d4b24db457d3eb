package banktxn

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Match statuses. Always derived from the set of approved matches by the
// recalculator; clients can never set these directly.
const (
	StatusUnmatched        = "unmatched"
	StatusPartiallyMatched = "partially_matched"
	StatusMatched          = "matched"
)

// BankTransaction is one normalized row from an external bank feed.
// Duplicate-looking rows are legitimate (bank feeds contain repeats), so
// there is no natural-key dedup here.
type BankTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ImportBatchID string    `gorm:"size:36;index" json:"importBatchId"`
	ImportedAt    time.Time `gorm:"not null" json:"importedAt"`

	TransactionDate time.Time       `gorm:"not null;index" json:"transactionDate"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Counterparty    string          `gorm:"size:255;not null" json:"counterparty"`
	Memo            string          `gorm:"size:500" json:"memo,omitempty"`
	Reference       string          `gorm:"size:255;index" json:"reference,omitempty"`

	Status            string   `gorm:"size:50;not null;default:'unmatched';index" json:"status"`
	MatchConfidence   *float64 `json:"matchConfidence,omitempty"`
	MatchNotes        string   `gorm:"type:text" json:"matchNotes,omitempty"`
	MatchedInvoiceIDs []uint   `gorm:"type:jsonb;serializer:json" json:"matchedInvoiceIds"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&BankTransaction{})
}
