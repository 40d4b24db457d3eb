package deal

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deal is an investment opportunity in the portal. The engine reads deals
// and their subscriptions; it never drives the deal lifecycle itself.
type Deal struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name       string `gorm:"size:255;not null" json:"name"`
	VehicleID  *uint  `gorm:"index" json:"vehicleId,omitempty"`
	ArrangerID uint   `gorm:"index" json:"arrangerId"`
	Currency   string `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status     string `gorm:"size:50;not null;default:'open'" json:"status"`

	Subscriptions []Subscription `gorm:"foreignKey:DealID" json:"subscriptions,omitempty"`
}

// Subscription is one investor's position in a deal. Commitment, funded
// amount and units are the fee bases the evaluator reads.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DealID     uint `gorm:"not null;index;uniqueIndex:idx_sub_deal_investor,priority:1" json:"dealId"`
	InvestorID uint `gorm:"not null;index;uniqueIndex:idx_sub_deal_investor,priority:2" json:"investorId"`

	Commitment   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"commitment"`
	FundedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"fundedAmount"`
	UnitsTraded  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unitsTraded"`

	// SelectedFeePlanID overrides the deal's default plan for this investor.
	SelectedFeePlanID *uint `gorm:"index" json:"selectedFeePlanId,omitempty"`
}

// Valuation is a per-date NAV snapshot for a deal, carrying the running
// high-water mark used by performance fees.
type Valuation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	DealID uint      `gorm:"not null;index;uniqueIndex:idx_valuation_deal_date,priority:1" json:"dealId"`
	AsOf   time.Time `gorm:"not null;uniqueIndex:idx_valuation_deal_date,priority:2" json:"asOf"`

	NAV           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"nav"`
	HighWaterMark decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"highWaterMark"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{}, &Subscription{}, &Valuation{})
}
