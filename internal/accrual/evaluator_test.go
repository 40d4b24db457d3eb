package accrual

import (
	"testing"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEvaluateFlat(t *testing.T) {
	c := &feeplan.FeeComponent{
		Kind:       feeplan.KindSubscription,
		CalcMethod: feeplan.CalcFlat,
		FlatAmount: d("500"),
		Currency:   "USD",
	}
	amount, ok, err := Evaluate(c, Basis{}, date("2026-03-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("500")) {
		t.Errorf("amount = %s, want 500", amount)
	}
}

func TestEvaluateFlatZeroAmountYieldsNothing(t *testing.T) {
	c := &feeplan.FeeComponent{CalcMethod: feeplan.CalcFlat, Currency: "USD"}
	_, ok, err := Evaluate(c, Basis{}, date("2026-03-31"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("zero flat amount should yield nothing")
	}
}

func TestEvaluatePercentBps(t *testing.T) {
	c := &feeplan.FeeComponent{
		Kind:           feeplan.KindManagement,
		CalcMethod:     feeplan.CalcPercentBps,
		RateBps:        d("200"),
		BasisReference: feeplan.BasisCommitment,
		Currency:       "USD",
	}
	amount, ok, err := Evaluate(c, Basis{Commitment: d("100000")}, date("2026-03-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("2000")) {
		t.Errorf("200 bps of 100000 = %s, want 2000", amount)
	}
}

func TestEvaluatePercentBpsZeroBasis(t *testing.T) {
	c := &feeplan.FeeComponent{
		CalcMethod:     feeplan.CalcPercentBps,
		RateBps:        d("200"),
		BasisReference: feeplan.BasisFundedAmount,
		Currency:       "USD",
	}
	_, ok, err := Evaluate(c, Basis{}, date("2026-03-31"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("zero basis should yield nothing")
	}
}

func TestEvaluatePerUnitSpread(t *testing.T) {
	c := &feeplan.FeeComponent{
		Kind:          feeplan.KindSpread,
		CalcMethod:    feeplan.CalcPerUnitSpread,
		SpreadPerUnit: d("0.25"),
		Currency:      "USD",
	}
	amount, ok, err := Evaluate(c, Basis{UnitsTraded: d("1000")}, date("2026-03-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("250")) {
		t.Errorf("1000 units at 0.25 = %s, want 250", amount)
	}
}

func TestEvaluateWindowExcludes(t *testing.T) {
	from := date("2026-01-01")
	to := date("2026-06-30")
	c := &feeplan.FeeComponent{
		CalcMethod:    feeplan.CalcFlat,
		FlatAmount:    d("500"),
		Currency:      "USD",
		EffectiveFrom: &from,
		EffectiveTo:   &to,
	}
	for _, asOf := range []string{"2025-12-31", "2026-07-01"} {
		if _, ok, _ := Evaluate(c, Basis{}, date(asOf)); ok {
			t.Errorf("asOf %s is outside the window, expected nothing", asOf)
		}
	}
	if _, ok, _ := Evaluate(c, Basis{}, date("2026-03-31")); !ok {
		t.Error("asOf inside the window should yield an event")
	}
}

func TestEvaluateUnknownCalcMethod(t *testing.T) {
	c := &feeplan.FeeComponent{CalcMethod: "bogus", Currency: "USD"}
	if _, _, err := Evaluate(c, Basis{}, date("2026-03-31")); err == nil {
		t.Error("unknown calcMethod should error")
	}
}

func performanceComponent() *feeplan.FeeComponent {
	return &feeplan.FeeComponent{
		Kind:           feeplan.KindPerformance,
		CalcMethod:     feeplan.CalcTiered,
		BasisReference: feeplan.BasisFundedAmount,
		Currency:       "USD",
		RateBps:        d("1000"), // 10% tier 1
		HurdleRateBps:  d("1000"), // 10% hurdle
		Tier1Threshold: d("1000"),
		Tier2RateBps:   d("2000"), // 20% above the threshold
	}
}

func TestEvaluatePerformanceTierBlend(t *testing.T) {
	// Funded 100000, NAV 111500: gain 11500, hurdle 10000, excess 1500.
	// Tier 1: 1000 at 10% = 100. Tier 2: 500 at 20% = 100. Fee 200.
	c := performanceComponent()
	b := Basis{FundedAmount: d("100000"), NAV: d("111500")}
	amount, ok, err := Evaluate(c, b, date("2026-12-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("200")) {
		t.Errorf("blended fee = %s, want 200", amount)
	}
}

func TestEvaluatePerformanceBelowHurdle(t *testing.T) {
	c := performanceComponent()
	b := Basis{FundedAmount: d("100000"), NAV: d("109000")} // gain 9000 < hurdle 10000
	_, ok, err := Evaluate(c, b, date("2026-12-31"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("gain below the hurdle should yield nothing")
	}
}

func TestEvaluatePerformanceHighWaterMark(t *testing.T) {
	c := performanceComponent()
	c.HasHighWaterMark = true

	// NAV at or below the mark: no fee regardless of gain over basis.
	b := Basis{FundedAmount: d("100000"), NAV: d("111500"), HighWaterMark: d("120000")}
	if _, ok, _ := Evaluate(c, b, date("2026-12-31")); ok {
		t.Error("NAV below the high-water mark should yield nothing")
	}

	// Mark clamps the gain: NAV 125000, mark 114000 limits gain to 11000,
	// excess 1000, all tier 1 at 10% = 100.
	b = Basis{FundedAmount: d("100000"), NAV: d("125000"), HighWaterMark: d("114000")}
	amount, ok, err := Evaluate(c, b, date("2026-12-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("100")) {
		t.Errorf("clamped fee = %s, want 100", amount)
	}
}

func TestEvaluatePerformanceCatchup(t *testing.T) {
	c := performanceComponent()
	c.HasCatchup = true
	c.CatchupRateBps = d("500") // 5% on the hurdle tranche

	// Excess 1500 as in the blend test (fee 200) plus 5% of the 10000
	// hurdle tranche (500).
	b := Basis{FundedAmount: d("100000"), NAV: d("111500")}
	amount, ok, err := Evaluate(c, b, date("2026-12-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("700")) {
		t.Errorf("fee with catch-up = %s, want 700", amount)
	}
}

func TestEvaluatePerformanceCap(t *testing.T) {
	c := performanceComponent()
	c.PerformanceCapPercent = d("0.1") // 0.1% of NAV

	// Uncapped fee would be 200; cap is 111500 * 0.1% = 111.50.
	b := Basis{FundedAmount: d("100000"), NAV: d("111500")}
	amount, ok, err := Evaluate(c, b, date("2026-12-31"))
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if !amount.Equal(d("111.50")) {
		t.Errorf("capped fee = %s, want 111.50", amount)
	}
}

func TestPeriodStart(t *testing.T) {
	asOf := date("2026-08-17")
	tests := []struct {
		frequency string
		want      string
	}{
		{feeplan.FreqMonthly, "2026-08-01"},
		{feeplan.FreqQuarterly, "2026-07-01"},
		{feeplan.FreqAnnual, "2026-01-01"},
		{feeplan.FreqOneTime, "0001-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			got := PeriodStart(tt.frequency, asOf)
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("PeriodStart(%s) = %s, want %s", tt.frequency, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}
