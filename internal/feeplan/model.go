package feeplan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fee component kinds.
const (
	KindSubscription = "subscription"
	KindManagement   = "management"
	KindSpread       = "spread"
	KindPerformance  = "performance"
	KindOther        = "other"
)

// Calculation methods.
const (
	CalcFlat          = "flat"
	CalcPercentBps    = "percentBps"
	CalcPerUnitSpread = "perUnitSpread"
	CalcTiered        = "tiered"
)

// Accrual frequencies.
const (
	FreqOneTime   = "one_time"
	FreqAnnual    = "annual"
	FreqQuarterly = "quarterly"
	FreqMonthly   = "monthly"
)

// Basis references.
const (
	BasisCommitment   = "commitment"
	BasisFundedAmount = "fundedAmount"
	BasisNAV          = "nav"
	BasisUnitsTraded  = "unitsTraded"
)

// FeeComponent is an immutable contractual term. Once a FeeEvent references
// it, the component is never edited; changes create a new component instead.
type FeeComponent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FeePlanID uint `gorm:"not null;index" json:"feePlanId"`

	Kind           string          `gorm:"size:50;not null" json:"kind"`
	CalcMethod     string          `gorm:"size:50;not null" json:"calcMethod"`
	RateBps        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"rateBps"`
	FlatAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"flatAmount"`
	SpreadPerUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"spreadPerUnit"`
	Frequency      string          `gorm:"size:50;not null;default:'one_time'" json:"frequency"`
	BasisReference string          `gorm:"size:50;not null" json:"basisReference"`
	Currency       string          `gorm:"size:3;not null;default:'USD'" json:"currency"`

	// Effective window; a zero To means open-ended.
	EffectiveFrom *time.Time `json:"effectiveFrom,omitempty"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"`

	// Performance-fee modifiers.
	HurdleRateBps         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"hurdleRateBps"`
	HasCatchup            bool            `gorm:"not null;default:false" json:"hasCatchup"`
	CatchupRateBps        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"catchupRateBps"`
	HasHighWaterMark      bool            `gorm:"not null;default:false" json:"hasHighWaterMark"`
	PerformanceCapPercent decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"performanceCapPercent"`

	// Tier 1 applies up to Tier1Threshold of excess; Tier2RateBps applies to
	// the remainder as a blended rate, not a cliff.
	Tier1Threshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tier1Threshold"`
	Tier2RateBps   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tier2RateBps"`
}

// FeePlan is a named container of components scoped to a deal or vehicle.
// Archived plans keep their rows; plans referenced by events are never
// hard-deleted.
type FeePlan struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name      string `gorm:"size:255;not null" json:"name"`
	DealID    *uint  `gorm:"index" json:"dealId,omitempty"`
	VehicleID *uint  `gorm:"index" json:"vehicleId,omitempty"`
	IsDefault bool   `gorm:"not null;default:false" json:"isDefault"`
	IsActive  bool   `gorm:"not null;default:true" json:"isActive"`

	Components []FeeComponent `gorm:"foreignKey:FeePlanID" json:"components,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FeePlan{}, &FeeComponent{})
}

// validKinds etc. used by handler validation.
var validKinds = map[string]bool{
	KindSubscription: true, KindManagement: true, KindSpread: true,
	KindPerformance: true, KindOther: true,
}

var validCalcMethods = map[string]bool{
	CalcFlat: true, CalcPercentBps: true, CalcPerUnitSpread: true, CalcTiered: true,
}

var validFrequencies = map[string]bool{
	FreqOneTime: true, FreqAnnual: true, FreqQuarterly: true, FreqMonthly: true,
}

var validBases = map[string]bool{
	BasisCommitment: true, BasisFundedAmount: true, BasisNAV: true, BasisUnitsTraded: true,
}
