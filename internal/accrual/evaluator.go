// Package accrual turns contractual fee terms into dated monetary
// obligations. The evaluator is pure; the scheduler persists its output as
// idempotent fee events.
package accrual

import (
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/money"
	"github.com/shopspring/decimal"
)

// Basis is the funding/valuation snapshot one evaluation reads.
type Basis struct {
	Commitment    decimal.Decimal
	FundedAmount  decimal.Decimal
	NAV           decimal.Decimal
	UnitsTraded   decimal.Decimal
	HighWaterMark decimal.Decimal
}

func (b Basis) value(reference string) decimal.Decimal {
	switch reference {
	case feeplan.BasisCommitment:
		return b.Commitment
	case feeplan.BasisFundedAmount:
		return b.FundedAmount
	case feeplan.BasisNAV:
		return b.NAV
	case feeplan.BasisUnitsTraded:
		return b.UnitsTraded
	}
	return decimal.Zero
}

// Evaluate produces zero or one obligation for a component against a basis
// snapshot as of a date. ok is false when the component yields nothing
// (basis zero/negative, window excludes asOf, no excess over hurdle).
func Evaluate(c *feeplan.FeeComponent, b Basis, asOf time.Time) (amount decimal.Decimal, ok bool, err error) {
	if !windowIncludes(c, asOf) {
		return decimal.Zero, false, nil
	}

	switch c.CalcMethod {
	case feeplan.CalcFlat:
		if c.FlatAmount.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, false, nil
		}
		// Once per eligible period; the event natural key, not the
		// evaluator, guards repetition.
		return money.Round(c.FlatAmount, c.Currency), true, nil

	case feeplan.CalcPercentBps:
		basis := b.value(c.BasisReference)
		if basis.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, false, nil
		}
		fee := basis.Mul(money.BpsFactor(c.RateBps))
		return money.Round(fee, c.Currency), true, nil

	case feeplan.CalcPerUnitSpread:
		if b.UnitsTraded.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, false, nil
		}
		fee := b.UnitsTraded.Mul(c.SpreadPerUnit)
		return money.Round(fee, c.Currency), true, nil

	case feeplan.CalcTiered:
		return evaluatePerformance(c, b)

	default:
		return decimal.Zero, false, apperror.Validationf("unknown calcMethod %q", c.CalcMethod)
	}
}

// evaluatePerformance computes a performance fee on the excess return over
// the hurdle, tier-blended so the rate at the threshold has no cliff edge.
func evaluatePerformance(c *feeplan.FeeComponent, b Basis) (decimal.Decimal, bool, error) {
	basis := b.value(c.BasisReference)
	if basis.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, nil
	}
	gain := b.NAV.Sub(basis)

	if c.HasHighWaterMark {
		aboveMark := b.NAV.Sub(b.HighWaterMark)
		if aboveMark.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, false, nil
		}
		if aboveMark.LessThan(gain) {
			gain = aboveMark
		}
	}

	hurdleAmount := basis.Mul(money.BpsFactor(c.HurdleRateBps))
	excess := gain.Sub(hurdleAmount)
	if excess.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, nil
	}

	var fee decimal.Decimal
	if c.Tier1Threshold.GreaterThan(decimal.Zero) && c.Tier2RateBps.GreaterThan(decimal.Zero) {
		// Blended: tier-1 rate up to the threshold, tier-2 rate on the
		// remainder.
		tier1Base := decimal.Min(excess, c.Tier1Threshold)
		tier2Base := decimal.Max(excess.Sub(c.Tier1Threshold), decimal.Zero)
		fee = tier1Base.Mul(money.BpsFactor(c.RateBps)).
			Add(tier2Base.Mul(money.BpsFactor(c.Tier2RateBps)))
	} else {
		fee = excess.Mul(money.BpsFactor(c.RateBps))
	}

	if c.HasCatchup && c.CatchupRateBps.GreaterThan(decimal.Zero) {
		// Once the hurdle is cleared, the catch-up rate applies to the
		// hurdle tranche itself.
		fee = fee.Add(hurdleAmount.Mul(money.BpsFactor(c.CatchupRateBps)))
	}

	if c.PerformanceCapPercent.GreaterThan(decimal.Zero) {
		cap := b.NAV.Mul(c.PerformanceCapPercent).Div(decimal.NewFromInt(100))
		if fee.GreaterThan(cap) {
			fee = cap
		}
	}

	return money.Round(fee, c.Currency), true, nil
}

func windowIncludes(c *feeplan.FeeComponent, asOf time.Time) bool {
	if c.EffectiveFrom != nil && asOf.Before(*c.EffectiveFrom) {
		return false
	}
	if c.EffectiveTo != nil && asOf.After(*c.EffectiveTo) {
		return false
	}
	return true
}

// PeriodStart normalizes an as-of date to the start of the component's
// accrual period so re-runs within the same period collapse onto one event.
func PeriodStart(frequency string, asOf time.Time) time.Time {
	y, m, _ := asOf.Date()
	switch frequency {
	case feeplan.FreqMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case feeplan.FreqQuarterly:
		qm := time.Month(((int(m)-1)/3)*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
	case feeplan.FreqAnnual:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // one_time
		return time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}
