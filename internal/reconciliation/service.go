package reconciliation

import (
	"fmt"
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/audit"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/invoice"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"gorm.io/gorm"
)

// Service commits and reverses match decisions. Every money-mutating
// operation here is one atomic transaction spanning the match, the invoice
// and the bank transaction.
type Service struct {
	DB    *gorm.DB
	Audit *audit.Store
}

func NewService(db *gorm.DB, auditStore *audit.Store) *Service {
	return &Service{DB: db, Audit: auditStore}
}

// Approve moves a suggested match to approved, applies its amount to the
// invoice and re-derives both sides' state.
func (s *Service) Approve(actor uint, matchID uint) (*Match, error) {
	var approved *Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		m, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}
		if m.Status != StatusSuggested {
			return &apperror.StateConflictError{Entity: "match", ID: matchID, Current: m.Status, Required: StatusSuggested}
		}

		res := tx.Model(&Match{}).
			Where("id = ? AND status = ?", matchID, StatusSuggested).
			Update("status", StatusApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperror.StateConflictError{Entity: "match", ID: matchID, Current: "changed concurrently", Required: StatusSuggested}
		}

		if _, err := invoice.ApplyPayment(tx, m.InvoiceID, m.MatchedAmount); err != nil {
			return err
		}
		if _, err := RecalculateTransaction(tx, m.BankTransactionID); err != nil {
			return err
		}

		m.Status = StatusApproved
		approved = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Append(actor, "match.approved", "match", matchID, "amount="+approved.MatchedAmount.StringFixed(2))
	return approved, nil
}

// Reject terminates a suggested match without touching money.
func (s *Service) Reject(actor uint, matchID uint) (*Match, error) {
	m, err := s.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusSuggested {
		return nil, &apperror.StateConflictError{Entity: "match", ID: matchID, Current: m.Status, Required: StatusSuggested}
	}
	res := s.DB.Model(&Match{}).
		Where("id = ? AND status = ?", matchID, StatusSuggested).
		Update("status", StatusRejected)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperror.StateConflictError{Entity: "match", ID: matchID, Current: "changed concurrently", Required: StatusSuggested}
	}
	m.Status = StatusRejected
	s.Audit.Append(actor, "match.rejected", "match", matchID, "")
	return m, nil
}

// Reverse undoes an approved match: it appends a timestamped note rather
// than deleting history, reverts the invoice payment (cascading to fee
// events) and re-derives the transaction's state.
func (s *Service) Reverse(actor uint, matchID uint) (*Match, error) {
	var reversed *Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		m, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}
		if m.Status != StatusApproved {
			return &apperror.StateConflictError{Entity: "match", ID: matchID, Current: m.Status, Required: StatusApproved}
		}

		note := fmt.Sprintf("reversed at %s by user %d", time.Now().UTC().Format(time.RFC3339), actor)
		reason := m.MatchReason
		if reason != "" {
			reason += "; "
		}
		reason += note

		res := tx.Model(&Match{}).
			Where("id = ? AND status = ?", matchID, StatusApproved).
			Updates(map[string]interface{}{"status": StatusReversed, "match_reason": reason})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperror.StateConflictError{Entity: "match", ID: matchID, Current: "changed concurrently", Required: StatusApproved}
		}

		if _, err := invoice.RevertPayment(tx, m.InvoiceID, m.MatchedAmount); err != nil {
			return err
		}
		if _, err := RecalculateTransaction(tx, m.BankTransactionID); err != nil {
			return err
		}

		m.Status = StatusReversed
		m.MatchReason = reason
		reversed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Append(actor, "match.reversed", "match", matchID, "amount="+reversed.MatchedAmount.StringFixed(2))
	return reversed, nil
}

// UnmatchResult reports a bulk unmatch.
type UnmatchResult struct {
	Transaction *banktxn.BankTransaction `json:"transaction"`
	Reversed    int                      `json:"reversed"`
	Errors      []apperror.ItemError     `json:"errors,omitempty"`
}

// UnmatchTransaction reverses every approved match on a transaction by
// repeated application of the single-match reversal, so the two operations
// cannot disagree about final state. Each reversal is its own transaction
// boundary: one failure does not block the siblings.
func (s *Service) UnmatchTransaction(actor uint, txnID uint) (*UnmatchResult, error) {
	var approved []Match
	if err := s.DB.
		Where("bank_transaction_id = ? AND status = ?", txnID, StatusApproved).
		Order("id ASC").
		Find(&approved).Error; err != nil {
		return nil, err
	}

	res := &UnmatchResult{}
	for i, m := range approved {
		if _, err := s.Reverse(actor, m.ID); err != nil {
			res.Errors = append(res.Errors, apperror.ItemError{Index: i, Ref: fmt.Sprintf("match %d", m.ID), Error: err.Error()})
			continue
		}
		res.Reversed++
	}

	var txn banktxn.BankTransaction
	if err := s.DB.First(&txn, txnID).Error; err != nil {
		return nil, err
	}
	res.Transaction = &txn
	return res, nil
}

// FindByID loads one match.
func (s *Service) FindByID(id uint) (*Match, error) {
	var m Match
	if err := s.DB.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForTransaction returns a transaction's matches, all statuses.
func (s *Service) ListForTransaction(txnID uint) ([]Match, error) {
	var list []Match
	err := s.DB.Where("bank_transaction_id = ?", txnID).Order("id ASC").Find(&list).Error
	return list, err
}

func lockMatch(tx *gorm.DB, id uint) (*Match, error) {
	var m Match
	if err := db.ForUpdate(tx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
