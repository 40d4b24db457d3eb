package reconciliation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/audit"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/deal"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/invoice"
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
	migrations := []func(*gorm.DB) error{
		deal.Migrate, feeevent.Migrate, invoice.Migrate, banktxn.Migrate, Migrate, audit.Migrate,
	}
	for _, migrate := range migrations {
		if err := migrate(gdb); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return gdb
}

func testService(t *testing.T, gdb *gorm.DB) *Service {
	t.Helper()
	return NewService(gdb, audit.NewStore(gdb, t.TempDir()))
}

// seedInvoice creates a sent invoice with one invoiced fee event per line
// amount, so payment cascades are observable.
func seedInvoice(t *testing.T, gdb *gorm.DB, number string, lineAmounts ...string) *invoice.Invoice {
	t.Helper()
	total := decimal.Zero
	for _, a := range lineAmounts {
		total = total.Add(d(a))
	}
	inv := &invoice.Invoice{
		Number:     number,
		SourceType: invoice.SourceFeeEvents,
		InvestorID: 42,
		DealID:     1,
		Subtotal:   total,
		Total:      total,
		PaidAmount: decimal.Zero,
		Currency:   "USD",
		Status:     invoice.StatusSent,
		DueDate:    time.Now().UTC().AddDate(0, 0, 30),
	}
	if err := gdb.Create(inv).Error; err != nil {
		t.Fatal(err)
	}
	for i, a := range lineAmounts {
		e := &feeevent.FeeEvent{
			FeeComponentID: inv.ID*10 + uint(i+1),
			InvestorID:     42,
			EventDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			DealID:         1,
			ComputedAmount: d(a),
			Currency:       "USD",
			Status:         feeevent.StatusInvoiced,
			InvoiceID:      &inv.ID,
		}
		if err := gdb.Create(e).Error; err != nil {
			t.Fatal(err)
		}
	}
	return inv
}

func seedTxn(t *testing.T, gdb *gorm.DB, amount, counterparty string) *banktxn.BankTransaction {
	t.Helper()
	txn := &banktxn.BankTransaction{
		ImportBatchID:     "batch-1",
		ImportedAt:        time.Now().UTC(),
		TransactionDate:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Amount:            d(amount),
		Currency:          "USD",
		Counterparty:      counterparty,
		Status:            banktxn.StatusUnmatched,
		MatchedInvoiceIDs: []uint{},
	}
	if err := gdb.Create(txn).Error; err != nil {
		t.Fatal(err)
	}
	return txn
}

func seedSuggestedMatch(t *testing.T, gdb *gorm.DB, txnID, invoiceID uint, amount string, confidence float64) *Match {
	t.Helper()
	m := &Match{
		BankTransactionID: txnID,
		InvoiceID:         invoiceID,
		MatchedAmount:     d(amount),
		Confidence:        confidence,
		Status:            StatusSuggested,
		MatchReason:       "seeded",
	}
	if err := gdb.Create(m).Error; err != nil {
		t.Fatal(err)
	}
	return m
}

func reloadInvoice(t *testing.T, gdb *gorm.DB, id uint) *invoice.Invoice {
	t.Helper()
	var inv invoice.Invoice
	if err := gdb.First(&inv, id).Error; err != nil {
		t.Fatal(err)
	}
	return &inv
}

func reloadTxn(t *testing.T, gdb *gorm.DB, id uint) *banktxn.BankTransaction {
	t.Helper()
	var txn banktxn.BankTransaction
	if err := gdb.First(&txn, id).Error; err != nil {
		t.Fatal(err)
	}
	return &txn
}

func feeEventStatuses(t *testing.T, gdb *gorm.DB, invoiceID uint) []string {
	t.Helper()
	var events []feeevent.FeeEvent
	if err := gdb.Where("invoice_id = ?", invoiceID).Order("id ASC").Find(&events).Error; err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Status
	}
	return out
}

// Two partial payments settle a 10000 invoice; reversing one returns both
// sides to a consistent partial state.
func TestApproveAndReverseRoundTrip(t *testing.T) {
	gdb := testDB(t)
	svc := testService(t, gdb)

	inv := seedInvoice(t, gdb, "INV-1001", "6000", "4000")
	txn1 := seedTxn(t, gdb, "6000", "Quantum Ventures")
	txn2 := seedTxn(t, gdb, "4000", "Quantum Ventures")
	m1 := seedSuggestedMatch(t, gdb, txn1.ID, inv.ID, "6000", 0.9)
	m2 := seedSuggestedMatch(t, gdb, txn2.ID, inv.ID, "4000", 0.8)

	if _, err := svc.Approve(1, m1.ID); err != nil {
		t.Fatal(err)
	}
	got := reloadInvoice(t, gdb, inv.ID)
	if got.Status != invoice.StatusPartiallyPaid {
		t.Errorf("after first approval invoice status = %s, want partially_paid", got.Status)
	}
	if !got.PaidAmount.Equal(d("6000")) {
		t.Errorf("paidAmount = %s, want 6000", got.PaidAmount)
	}

	if _, err := svc.Approve(1, m2.ID); err != nil {
		t.Fatal(err)
	}
	got = reloadInvoice(t, gdb, inv.ID)
	if got.Status != invoice.StatusPaid {
		t.Errorf("after second approval invoice status = %s, want paid", got.Status)
	}
	for _, s := range feeEventStatuses(t, gdb, inv.ID) {
		if s != feeevent.StatusPaid {
			t.Errorf("fee event status = %s, want paid", s)
		}
	}
	txn := reloadTxn(t, gdb, txn2.ID)
	if txn.Status != banktxn.StatusMatched {
		t.Errorf("transaction status = %s, want matched", txn.Status)
	}
	if len(txn.MatchedInvoiceIDs) != 1 || txn.MatchedInvoiceIDs[0] != inv.ID {
		t.Errorf("matchedInvoiceIds = %v, want [%d]", txn.MatchedInvoiceIDs, inv.ID)
	}

	// Reverse the 4000 match.
	reversed, err := svc.Reverse(1, m2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reversed.Status != StatusReversed {
		t.Errorf("match status = %s, want reversed", reversed.Status)
	}
	if !strings.Contains(reversed.MatchReason, "reversed at") {
		t.Errorf("reversal must append a note, got %q", reversed.MatchReason)
	}

	got = reloadInvoice(t, gdb, inv.ID)
	if got.Status != invoice.StatusPartiallyPaid {
		t.Errorf("after reversal invoice status = %s, want partially_paid", got.Status)
	}
	if !got.PaidAmount.Equal(d("6000")) {
		t.Errorf("after reversal paidAmount = %s, want 6000", got.PaidAmount)
	}
	for _, s := range feeEventStatuses(t, gdb, inv.ID) {
		if s != feeevent.StatusInvoiced {
			t.Errorf("after reversal fee event status = %s, want invoiced", s)
		}
	}

	txn = reloadTxn(t, gdb, txn2.ID)
	if txn.Status != banktxn.StatusUnmatched {
		t.Errorf("after reversal transaction status = %s, want unmatched", txn.Status)
	}
	if txn.MatchConfidence != nil {
		t.Errorf("confidence should be cleared once no match remains, got %v", *txn.MatchConfidence)
	}

	// The reversed match row survives as history.
	var count int64
	if err := gdb.Model(&Match{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("match rows = %d, want 2 (never deleted)", count)
	}
}

func TestApproveRequiresSuggested(t *testing.T) {
	gdb := testDB(t)
	svc := testService(t, gdb)

	inv := seedInvoice(t, gdb, "INV-1002", "1000")
	txn := seedTxn(t, gdb, "1000", "Quantum Ventures")
	m := seedSuggestedMatch(t, gdb, txn.ID, inv.ID, "1000", 0.9)

	if _, err := svc.Approve(1, m.ID); err != nil {
		t.Fatal(err)
	}
	var sc *apperror.StateConflictError
	if _, err := svc.Approve(1, m.ID); !errors.As(err, &sc) {
		t.Errorf("second approval err = %v, want StateConflictError", err)
	}
}

func TestRejectLeavesMoneyUntouched(t *testing.T) {
	gdb := testDB(t)
	svc := testService(t, gdb)

	inv := seedInvoice(t, gdb, "INV-1003", "1000")
	txn := seedTxn(t, gdb, "1000", "Quantum Ventures")
	m := seedSuggestedMatch(t, gdb, txn.ID, inv.ID, "1000", 0.9)

	rejected, err := svc.Reject(1, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if got := reloadInvoice(t, gdb, inv.ID); !got.PaidAmount.IsZero() {
		t.Errorf("reject must not touch money, paidAmount = %s", got.PaidAmount)
	}
	var sc *apperror.StateConflictError
	if _, err := svc.Reverse(1, m.ID); !errors.As(err, &sc) {
		t.Errorf("reversing a rejected match err = %v, want StateConflictError", err)
	}
}

func TestUnmatchTransactionReversesAllApproved(t *testing.T) {
	gdb := testDB(t)
	svc := testService(t, gdb)

	inv1 := seedInvoice(t, gdb, "INV-1004", "600")
	inv2 := seedInvoice(t, gdb, "INV-1005", "400")
	txn := seedTxn(t, gdb, "1000", "Quantum Ventures")
	m1 := seedSuggestedMatch(t, gdb, txn.ID, inv1.ID, "600", 0.9)
	m2 := seedSuggestedMatch(t, gdb, txn.ID, inv2.ID, "400", 0.8)
	for _, id := range []uint{m1.ID, m2.ID} {
		if _, err := svc.Approve(1, id); err != nil {
			t.Fatal(err)
		}
	}
	if got := reloadTxn(t, gdb, txn.ID); got.Status != banktxn.StatusMatched {
		t.Fatalf("transaction status = %s, want matched", got.Status)
	}

	res, err := svc.UnmatchTransaction(1, txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reversed != 2 || len(res.Errors) != 0 {
		t.Fatalf("reversed = %d, errors = %v; want 2 reversals", res.Reversed, res.Errors)
	}
	if res.Transaction.Status != banktxn.StatusUnmatched {
		t.Errorf("transaction status = %s, want unmatched", res.Transaction.Status)
	}
	for _, invID := range []uint{inv1.ID, inv2.ID} {
		if got := reloadInvoice(t, gdb, invID); !got.PaidAmount.IsZero() {
			t.Errorf("invoice %d paidAmount = %s, want 0", invID, got.PaidAmount)
		}
	}
}

func TestProposeSuggestsEqualAmountMatch(t *testing.T) {
	gdb := testDB(t)

	if err := gdb.Create(&deal.Deal{Name: "Quantum Ventures Fund", ArrangerID: 7, Currency: "USD"}).Error; err != nil {
		t.Fatal(err)
	}
	inv := seedInvoice(t, gdb, "INV-1006", "1000")
	txn := seedTxn(t, gdb, "1000", "Quantum Ventures")

	matcher := NewMatcher(gdb, DefaultMatcherConfig())
	proposed, err := matcher.Propose()
	if err != nil {
		t.Fatal(err)
	}
	if len(proposed) != 1 {
		t.Fatalf("proposed %d matches, want 1", len(proposed))
	}
	m := proposed[0]
	if m.BankTransactionID != txn.ID || m.InvoiceID != inv.ID {
		t.Errorf("proposed pair (%d, %d), want (%d, %d)", m.BankTransactionID, m.InvoiceID, txn.ID, inv.ID)
	}
	if m.Status != StatusSuggested {
		t.Errorf("status = %s, want suggested", m.Status)
	}
	if !m.MatchedAmount.Equal(d("1000")) {
		t.Errorf("matchedAmount = %s, want 1000", m.MatchedAmount)
	}
	if m.Confidence < DefaultMatcherConfig().MinConfidence {
		t.Errorf("confidence = %v, below the proposal floor", m.Confidence)
	}

	// Proposing is free of side effects on money-bearing state, and a
	// second run does not duplicate the live suggestion.
	if got := reloadInvoice(t, gdb, inv.ID); !got.PaidAmount.IsZero() {
		t.Errorf("propose touched paidAmount: %s", got.PaidAmount)
	}
	again, err := matcher.Propose()
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second propose suggested %d matches, want 0", len(again))
	}
}

func TestProposeSkipsCurrencyMismatch(t *testing.T) {
	gdb := testDB(t)

	inv := seedInvoice(t, gdb, "INV-1007", "1000")
	txn := seedTxn(t, gdb, "1000", "Quantum Ventures")
	if err := gdb.Model(&banktxn.BankTransaction{}).Where("id = ?", txn.ID).Update("currency", "EUR").Error; err != nil {
		t.Fatal(err)
	}
	_ = inv

	proposed, err := NewMatcher(gdb, DefaultMatcherConfig()).Propose()
	if err != nil {
		t.Fatal(err)
	}
	if len(proposed) != 0 {
		t.Errorf("proposed %d matches across currencies, want 0", len(proposed))
	}
}
