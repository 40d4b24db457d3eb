package accrual

import (
	"testing"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/deal"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatal(err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	for _, migrate := range []func(*gorm.DB) error{deal.Migrate, feeplan.Migrate, feeevent.Migrate} {
		if err := migrate(gdb); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return gdb
}

func seedDeal(t *testing.T, gdb *gorm.DB) (*deal.Deal, *feeplan.FeePlan) {
	t.Helper()
	deals := deal.NewRepository(gdb)
	plans := feeplan.NewRepository(gdb)

	d := &deal.Deal{Name: "Growth Fund III", ArrangerID: 7, Currency: "USD"}
	if err := deals.Create(d); err != nil {
		t.Fatal(err)
	}
	if err := deals.CreateSubscription(&deal.Subscription{
		DealID:       d.ID,
		InvestorID:   42,
		Commitment:   decimalFrom(t, "100000"),
		FundedAmount: decimalFrom(t, "80000"),
	}); err != nil {
		t.Fatal(err)
	}

	p := &feeplan.FeePlan{
		Name:      "standard",
		DealID:    &d.ID,
		IsDefault: true,
		IsActive:  true,
		Components: []feeplan.FeeComponent{
			{
				Kind:           feeplan.KindManagement,
				CalcMethod:     feeplan.CalcPercentBps,
				RateBps:        decimalFrom(t, "200"),
				Frequency:      feeplan.FreqQuarterly,
				BasisReference: feeplan.BasisCommitment,
				Currency:       "USD",
			},
			{
				Kind:       feeplan.KindSubscription,
				CalcMethod: feeplan.CalcFlat,
				FlatAmount: decimalFrom(t, "1500"),
				Frequency:  feeplan.FreqOneTime,
				Currency:   "USD",
			},
		},
	}
	if err := plans.Create(p); err != nil {
		t.Fatal(err)
	}
	return d, p
}

func TestComputeFeeEventsIsIdempotent(t *testing.T) {
	gdb := testDB(t)
	d, _ := seedDeal(t, gdb)

	s := NewScheduler(deal.NewRepository(gdb), feeplan.NewRepository(gdb), feeevent.NewRepository(gdb))

	res, err := s.ComputeFeeEvents(d.ID, date("2026-08-17"))
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsCreated != 2 {
		t.Fatalf("first run created %d events, want 2", res.EventsCreated)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected item errors: %v", res.Errors)
	}

	// A second run in the same period collapses onto the existing events.
	res, err = s.ComputeFeeEvents(d.ID, date("2026-08-20"))
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsCreated != 0 {
		t.Errorf("second run created %d events, want 0", res.EventsCreated)
	}

	var events []feeevent.FeeEvent
	if err := gdb.Order("id ASC").Find(&events).Error; err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("stored %d events, want 2", len(events))
	}
	if !events[0].ComputedAmount.Equal(decimalFrom(t, "2000")) {
		t.Errorf("management fee = %s, want 2000", events[0].ComputedAmount)
	}
	if events[0].Status != feeevent.StatusAccrued {
		t.Errorf("status = %s, want accrued", events[0].Status)
	}

	// A later quarter accrues the periodic component again but not the
	// one-time one.
	res, err = s.ComputeFeeEvents(d.ID, date("2026-11-15"))
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsCreated != 1 {
		t.Errorf("next quarter created %d events, want 1", res.EventsCreated)
	}
}

func TestComputeFeeEventsUnknownDeal(t *testing.T) {
	gdb := testDB(t)
	s := NewScheduler(deal.NewRepository(gdb), feeplan.NewRepository(gdb), feeevent.NewRepository(gdb))
	if _, err := s.ComputeFeeEvents(999, date("2026-08-17")); err == nil {
		t.Error("unknown deal should error")
	}
}

func TestComputeFeeEventsNoActivePlan(t *testing.T) {
	gdb := testDB(t)
	deals := deal.NewRepository(gdb)
	d := &deal.Deal{Name: "No Plan Deal", ArrangerID: 7, Currency: "USD"}
	if err := deals.Create(d); err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(deals, feeplan.NewRepository(gdb), feeevent.NewRepository(gdb))
	res, err := s.ComputeFeeEvents(d.ID, date("2026-08-17"))
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsCreated != 0 {
		t.Errorf("created %d events without a plan, want 0", res.EventsCreated)
	}
}
