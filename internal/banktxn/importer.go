package banktxn

import (
	"time"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ImportRow is one raw row from an external bank feed.
type ImportRow struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	Currency     string          `json:"currency,omitempty"`
	Memo         string          `json:"memo,omitempty"`
	Reference    string          `json:"reference,omitempty"`
}

// ImportResult enumerates per-row outcomes. Malformed rows are rejected
// individually; the rest of the import proceeds.
type ImportResult struct {
	BatchID  string               `json:"batchId"`
	Imported int                  `json:"imported"`
	Rejected []apperror.ItemError `json:"rejected,omitempty"`
}

// Importer normalizes rows into the bank transaction store.
type Importer struct {
	DB              *gorm.DB
	DefaultCurrency string
}

func NewImporter(db *gorm.DB, defaultCurrency string) *Importer {
	return &Importer{DB: db, DefaultCurrency: defaultCurrency}
}

// Import inserts each well-formed row with status unmatched. Rows are
// processed sequentially; a bad row is recorded and skipped.
func (im *Importer) Import(rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, apperror.Validationf("no rows supplied")
	}
	res := &ImportResult{BatchID: uuid.NewString()}
	now := time.Now().UTC()

	for i, row := range rows {
		txn, err := im.normalize(row, res.BatchID, now)
		if err != nil {
			res.Rejected = append(res.Rejected, apperror.ItemError{Index: i, Ref: row.Reference, Error: err.Error()})
			continue
		}
		if err := im.DB.Create(txn).Error; err != nil {
			res.Rejected = append(res.Rejected, apperror.ItemError{Index: i, Ref: row.Reference, Error: err.Error()})
			continue
		}
		res.Imported++
	}
	return res, nil
}

func (im *Importer) normalize(row ImportRow, batchID string, now time.Time) (*BankTransaction, error) {
	if row.Date == "" {
		return nil, apperror.Validationf("date is required")
	}
	date, err := time.Parse("2006-01-02", row.Date)
	if err != nil {
		return nil, apperror.Validationf("date must be YYYY-MM-DD")
	}
	if row.Amount.IsZero() {
		return nil, apperror.Validationf("amount is required")
	}
	if row.Counterparty == "" {
		return nil, apperror.Validationf("counterparty is required")
	}
	currency := money.NormalizeCurrency(row.Currency, im.DefaultCurrency)
	if !money.ValidCurrency(currency) {
		return nil, apperror.Validationf("invalid currency %q", currency)
	}
	return &BankTransaction{
		ImportBatchID:     batchID,
		ImportedAt:        now,
		TransactionDate:   date,
		Amount:            row.Amount,
		Currency:          currency,
		Counterparty:      row.Counterparty,
		Memo:              row.Memo,
		Reference:         row.Reference,
		Status:            StatusUnmatched,
		MatchedInvoiceIDs: []uint{},
	}, nil
}
