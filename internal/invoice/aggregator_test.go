package invoice

import (
	"errors"
	"testing"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
	sqlDB.SetMaxOpenConns(1)
	for _, migrate := range []func(*gorm.DB) error{feeevent.Migrate, Migrate} {
		if err := migrate(gdb); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return gdb
}

func seedEvent(t *testing.T, gdb *gorm.DB, componentID, investorID uint, amount, status string) *feeevent.FeeEvent {
	t.Helper()
	e := &feeevent.FeeEvent{
		FeeComponentID: componentID,
		InvestorID:     investorID,
		EventDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		DealID:         1,
		ComputedAmount: decimal.RequireFromString(amount),
		Currency:       "USD",
		Status:         status,
	}
	if err := gdb.Create(e).Error; err != nil {
		t.Fatal(err)
	}
	return e
}

// seedDraftInvoice builds a standalone draft invoice with no source events.
func seedDraftInvoice(t *testing.T, gdb *gorm.DB, total string) *Invoice {
	t.Helper()
	amount := decimal.RequireFromString(total)
	inv := &Invoice{
		Number:     "test-" + total,
		SourceType: SourceFeeEvents,
		InvestorID: 42,
		DealID:     1,
		Subtotal:   amount,
		Total:      amount,
		PaidAmount: decimal.Zero,
		Currency:   "USD",
		Status:     StatusDraft,
		DueDate:    time.Now().UTC().AddDate(0, 0, 30),
	}
	if err := gdb.Create(inv).Error; err != nil {
		t.Fatal(err)
	}
	return inv
}

// seedSentInvoice aggregates two fee events into an invoice and sends it,
// so payments can be applied against it.
func seedSentInvoice(t *testing.T, gdb *gorm.DB, total string) (*Invoice, []feeevent.FeeEvent) {
	t.Helper()
	sum := decimal.RequireFromString(total)
	half := sum.Div(decimal.NewFromInt(2))
	e1 := seedEvent(t, gdb, 1, 42, half.String(), feeevent.StatusAccrued)
	e2 := seedEvent(t, gdb, 2, 42, sum.Sub(half).String(), feeevent.StatusAccrued)

	inv, err := NewAggregator(gdb, 30).AggregateFeeEvents([]uint{e1.ID, e2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := MarkSent(gdb, inv.ID); err != nil {
		t.Fatal(err)
	}
	inv.Status = StatusSent

	var events []feeevent.FeeEvent
	if err := gdb.Where("invoice_id = ?", inv.ID).Find(&events).Error; err != nil {
		t.Fatal(err)
	}
	return inv, events
}

func TestAggregateFeeEvents(t *testing.T) {
	gdb := testDB(t)
	e1 := seedEvent(t, gdb, 1, 42, "600", feeevent.StatusAccrued)
	e2 := seedEvent(t, gdb, 2, 42, "400", feeevent.StatusAccrued)

	inv, err := NewAggregator(gdb, 30).AggregateFeeEvents([]uint{e1.ID, e2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Status != StatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	if !inv.Total.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("total = %s, want 1000", inv.Total)
	}
	if len(inv.Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(inv.Lines))
	}
	if inv.Number == "" {
		t.Error("invoice number must be assigned")
	}

	for _, id := range []uint{e1.ID, e2.ID} {
		var e feeevent.FeeEvent
		if err := gdb.First(&e, id).Error; err != nil {
			t.Fatal(err)
		}
		if e.Status != feeevent.StatusInvoiced {
			t.Errorf("event %d status = %s, want invoiced", id, e.Status)
		}
		if e.InvoiceID == nil || *e.InvoiceID != inv.ID {
			t.Errorf("event %d not linked to invoice %d", id, inv.ID)
		}
	}
}

func TestAggregateFeeEventsRejectsMixedInvestors(t *testing.T) {
	gdb := testDB(t)
	e1 := seedEvent(t, gdb, 1, 42, "600", feeevent.StatusAccrued)
	e2 := seedEvent(t, gdb, 2, 43, "400", feeevent.StatusAccrued)

	_, err := NewAggregator(gdb, 30).AggregateFeeEvents([]uint{e1.ID, e2.ID})
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	assertUntouched(t, gdb, e1.ID, e2.ID)
}

func TestAggregateFeeEventsRejectsNonAccrued(t *testing.T) {
	gdb := testDB(t)
	e1 := seedEvent(t, gdb, 1, 42, "600", feeevent.StatusAccrued)
	e2 := seedEvent(t, gdb, 2, 42, "400", feeevent.StatusVoided)

	_, err := NewAggregator(gdb, 30).AggregateFeeEvents([]uint{e1.ID, e2.ID})
	var sc *apperror.StateConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("err = %v, want StateConflictError", err)
	}
	assertUntouched(t, gdb, e1.ID)
}

func TestAggregateFeeEventsRejectsMissingIDs(t *testing.T) {
	gdb := testDB(t)
	e1 := seedEvent(t, gdb, 1, 42, "600", feeevent.StatusAccrued)

	_, err := NewAggregator(gdb, 30).AggregateFeeEvents([]uint{e1.ID, 999})
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	assertUntouched(t, gdb, e1.ID)
}

// assertUntouched verifies a failed aggregation left the events accrued and
// created no invoice.
func assertUntouched(t *testing.T, gdb *gorm.DB, eventIDs ...uint) {
	t.Helper()
	for _, id := range eventIDs {
		var e feeevent.FeeEvent
		if err := gdb.First(&e, id).Error; err != nil {
			t.Fatal(err)
		}
		if e.Status != feeevent.StatusAccrued || e.InvoiceID != nil {
			t.Errorf("event %d was modified by a failed aggregation", id)
		}
	}
	var count int64
	if err := gdb.Model(&Invoice{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("failed aggregation left %d invoices behind", count)
	}
}
