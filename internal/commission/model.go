package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind is the closed set of commission ledgers. The three variants are
// structurally identical; each Ledger instance is bound to exactly one kind
// at construction, so there is no runtime table-name dispatch.
type Kind string

const (
	KindIntroducer        Kind = "introducer"
	KindPartner           Kind = "partner"
	KindCommercialPartner Kind = "commercial_partner"
)

// Kinds lists every variant, in a stable order.
var Kinds = []Kind{KindIntroducer, KindPartner, KindCommercialPartner}

// Valid reports whether k names a known ledger.
func (k Kind) Valid() bool {
	switch k {
	case KindIntroducer, KindPartner, KindCommercialPartner:
		return true
	}
	return false
}

// Commission statuses. Pipeline: accrued → invoice_requested →
// invoice_submitted → invoiced → paid; cancelled from any non-paid state.
const (
	StatusAccrued          = "accrued"
	StatusInvoiceRequested = "invoice_requested"
	StatusInvoiceSubmitted = "invoice_submitted"
	StatusInvoiced         = "invoiced"
	StatusPaid             = "paid"
	StatusCancelled        = "cancelled"
)

// Commission is one third-party commission obligation.
type Commission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Kind Kind `gorm:"size:50;not null;index" json:"kind"`

	PayeeEntityID uint `gorm:"not null;index" json:"payeeEntityId"`
	ArrangerID    uint `gorm:"not null;index" json:"arrangerId"`
	DealID        uint `gorm:"not null;index" json:"dealId"`

	AccrualAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"accrualAmount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`

	Status string `gorm:"size:50;not null;default:'accrued';index" json:"status"`

	// InvoiceID is non-null from invoiced onward.
	InvoiceID  *uint   `gorm:"index" json:"invoiceId,omitempty"`
	DocumentID *string `gorm:"size:36" json:"documentId,omitempty"`

	BankReference string     `gorm:"size:255" json:"bankReference,omitempty"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Commission{})
}
