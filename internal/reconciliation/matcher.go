package reconciliation

import (
	"fmt"
	"strings"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/deal"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/invoice"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MatcherConfig tunes proposal scoring.
type MatcherConfig struct {
	// MinConfidence is the score below which a pair is not proposed.
	MinConfidence float64
	// AmountWeight and NameWeight blend the two signals; they should sum
	// to 1.
	AmountWeight float64
	NameWeight   float64
}

func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MinConfidence: 0.4,
		AmountWeight:  0.7,
		NameWeight:    0.3,
	}
}

// Matcher proposes suggested matches between unsettled bank transactions
// and open invoices. Proposing is observationally free: it writes suggested
// match rows only and never touches money-bearing fields.
type Matcher struct {
	DB     *gorm.DB
	Config MatcherConfig
}

func NewMatcher(db *gorm.DB, cfg MatcherConfig) *Matcher {
	return &Matcher{DB: db, Config: cfg}
}

// Propose scores every candidate pair of open invoice and unsettled
// transaction in the same currency and records the plausible ones as
// suggested matches. Pairs that already carry a live match are skipped.
func (m *Matcher) Propose() ([]Match, error) {
	var txns []banktxn.BankTransaction
	if err := m.DB.
		Where("status IN ?", []string{banktxn.StatusUnmatched, banktxn.StatusPartiallyMatched}).
		Find(&txns).Error; err != nil {
		return nil, err
	}

	var invoices []invoice.Invoice
	if err := m.DB.
		Where("status IN ?", []string{invoice.StatusSent, invoice.StatusPartiallyPaid}).
		Find(&invoices).Error; err != nil {
		return nil, err
	}

	dealNames, err := m.dealNames(invoices)
	if err != nil {
		return nil, err
	}

	proposed := []Match{}
	for ti := range txns {
		txn := &txns[ti]
		remaining, err := m.remainingForTransaction(txn)
		if err != nil {
			return nil, err
		}
		if remaining.LessThanOrEqual(money.Tolerance) {
			continue
		}
		for ii := range invoices {
			inv := &invoices[ii]
			if inv.Currency != txn.Currency {
				continue
			}
			outstanding := inv.Total.Sub(inv.PaidAmount)
			if outstanding.LessThanOrEqual(money.Tolerance) {
				continue
			}
			live, err := m.hasLiveMatch(txn.ID, inv.ID)
			if err != nil {
				return nil, err
			}
			if live {
				continue
			}

			confidence, reason := m.score(txn, inv, remaining, outstanding, dealNames[inv.DealID])
			if confidence < m.Config.MinConfidence {
				continue
			}
			match := Match{
				BankTransactionID: txn.ID,
				InvoiceID:         inv.ID,
				MatchedAmount:     decimal.Min(remaining, outstanding),
				Confidence:        confidence,
				Status:            StatusSuggested,
				MatchReason:       reason,
			}
			if err := m.DB.Create(&match).Error; err != nil {
				return nil, err
			}
			proposed = append(proposed, match)
		}
	}
	return proposed, nil
}

// remainingForTransaction is the transaction amount not yet covered by
// approved matches.
func (m *Matcher) remainingForTransaction(txn *banktxn.BankTransaction) (decimal.Decimal, error) {
	var approved []Match
	if err := m.DB.
		Where("bank_transaction_id = ? AND status = ?", txn.ID, StatusApproved).
		Find(&approved).Error; err != nil {
		return decimal.Zero, err
	}
	remaining := txn.Amount
	for _, a := range approved {
		remaining = remaining.Sub(a.MatchedAmount)
	}
	return remaining, nil
}

func (m *Matcher) hasLiveMatch(txnID, invoiceID uint) (bool, error) {
	var count int64
	err := m.DB.Model(&Match{}).
		Where("bank_transaction_id = ? AND invoice_id = ? AND status IN ?",
			txnID, invoiceID, []string{StatusSuggested, StatusApproved}).
		Count(&count).Error
	return count > 0, err
}

func (m *Matcher) dealNames(invoices []invoice.Invoice) (map[uint]string, error) {
	names := map[uint]string{}
	ids := []uint{}
	for _, inv := range invoices {
		if _, seen := names[inv.DealID]; !seen {
			names[inv.DealID] = ""
			ids = append(ids, inv.DealID)
		}
	}
	if len(ids) == 0 {
		return names, nil
	}
	var deals []deal.Deal
	if err := m.DB.Where("id IN ?", ids).Find(&deals).Error; err != nil {
		return nil, err
	}
	for _, d := range deals {
		names[d.ID] = d.Name
	}
	return names, nil
}

func (m *Matcher) score(txn *banktxn.BankTransaction, inv *invoice.Invoice, remaining, outstanding decimal.Decimal, dealName string) (float64, string) {
	amountScore := amountProximity(remaining, outstanding)
	nameScore := nameSimilarity(txn.Counterparty, dealName)
	if strings.Contains(strings.ToLower(txn.Memo+" "+txn.Reference), strings.ToLower(inv.Number)) {
		nameScore = 1
	}
	confidence := m.Config.AmountWeight*amountScore + m.Config.NameWeight*nameScore
	reason := fmt.Sprintf("amount proximity %.2f (txn remaining %s vs invoice outstanding %s), counterparty similarity %.2f",
		amountScore, remaining.StringFixed(2), outstanding.StringFixed(2), nameScore)
	return confidence, reason
}

// amountProximity is 1 for equal amounts, decaying linearly to 0 when the
// amounts differ by the larger of the two.
func amountProximity(a, b decimal.Decimal) float64 {
	if money.WithinTolerance(a, b) {
		return 1
	}
	larger := decimal.Max(a.Abs(), b.Abs())
	if larger.IsZero() {
		return 0
	}
	diff, _ := a.Sub(b).Abs().Div(larger).Float64()
	if diff > 1 {
		return 0
	}
	return 1 - diff
}

// nameSimilarity is the token overlap between two normalized names.
func nameSimilarity(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := map[string]bool{}
	for _, t := range ta {
		set[t] = true
	}
	common := 0
	union := len(set)
	for _, t := range tb {
		if set[t] {
			common++
		} else {
			union++
		}
	}
	return float64(common) / float64(union)
}

func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
