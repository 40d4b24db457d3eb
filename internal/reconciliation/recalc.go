package reconciliation

import (
	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/money"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeriveTransactionStatus re-derives a bank transaction's status from the
// total amount covered by approved matches. Pure and re-entrant: calling it
// twice with the same inputs yields the same answer.
func DeriveTransactionStatus(totalMatched, txnAmount decimal.Decimal) string {
	switch {
	case totalMatched.LessThanOrEqual(money.Tolerance):
		return banktxn.StatusUnmatched
	case money.WithinTolerance(totalMatched, txnAmount):
		return banktxn.StatusMatched
	default:
		return banktxn.StatusPartiallyMatched
	}
}

// RecalculateTransaction rebuilds a bank transaction's derived state from
// the set of currently-approved matches: status, matched invoice ids and,
// on a transition into unmatched, cleared confidence and notes. Must run
// inside the same transaction as the match mutation that triggered it.
func RecalculateTransaction(tx *gorm.DB, txnID uint) (*banktxn.BankTransaction, error) {
	var txn banktxn.BankTransaction
	if err := db.ForUpdate(tx).First(&txn, txnID).Error; err != nil {
		return nil, err
	}

	var approved []Match
	if err := tx.
		Where("bank_transaction_id = ? AND status = ?", txnID, StatusApproved).
		Order("id ASC").
		Find(&approved).Error; err != nil {
		return nil, err
	}

	totalMatched := decimal.Zero
	invoiceIDs := []uint{}
	maxConfidence := 0.0
	for _, m := range approved {
		totalMatched = totalMatched.Add(m.MatchedAmount)
		invoiceIDs = append(invoiceIDs, m.InvoiceID)
		if m.Confidence > maxConfidence {
			maxConfidence = m.Confidence
		}
	}

	txn.Status = DeriveTransactionStatus(totalMatched, txn.Amount)
	txn.MatchedInvoiceIDs = invoiceIDs
	if txn.Status == banktxn.StatusUnmatched {
		// Confidence and notes are meaningless once no match remains.
		txn.MatchConfidence = nil
		txn.MatchNotes = ""
	} else {
		txn.MatchConfidence = &maxConfidence
	}

	if err := tx.Save(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}
