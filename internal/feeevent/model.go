package feeevent

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeEvent statuses, monotonic forward. Voided is reachable from accrued or
// invoiced only; a paid event is reversed through its invoice, never voided.
const (
	StatusAccrued  = "accrued"
	StatusInvoiced = "invoiced"
	StatusPaid     = "paid"
	StatusVoided   = "voided"
)

// FeeEvent is one computed, dated monetary obligation. The unique index on
// (component, investor, eventDate) is what makes recomputation idempotent:
// concurrent writers cannot create a duplicate.
type FeeEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FeeComponentID uint      `gorm:"not null;uniqueIndex:idx_event_component_investor_date,priority:1" json:"feeComponentId"`
	InvestorID     uint      `gorm:"not null;index;uniqueIndex:idx_event_component_investor_date,priority:2" json:"investorId"`
	EventDate      time.Time `gorm:"not null;uniqueIndex:idx_event_component_investor_date,priority:3" json:"eventDate"`

	DealID    uint  `gorm:"not null;index" json:"dealId"`
	VehicleID *uint `gorm:"index" json:"vehicleId,omitempty"`

	ComputedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"computedAmount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`

	Status    string `gorm:"size:50;not null;default:'accrued';index" json:"status"`
	InvoiceID *uint  `gorm:"index" json:"invoiceId,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FeeEvent{})
}
