package banktxn

import (
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"gorm.io/gorm"
)

// Repository encapsulates data access for bank transactions.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

func (r *Repository) FindByID(id uint) (*BankTransaction, error) {
	var t BankTransaction
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByIDForUpdate loads a transaction under a row lock. Must run inside a
// transaction.
func (r *Repository) FindByIDForUpdate(id uint) (*BankTransaction, error) {
	var t BankTransaction
	err := db.ForUpdate(r.DB).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns transactions, optionally filtered by status.
func (r *Repository) List(status string) ([]BankTransaction, error) {
	q := r.DB.Order("transaction_date ASC, id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []BankTransaction
	err := q.Find(&list).Error
	return list, err
}

// ListUnsettled returns transactions still carrying unapplied amounts.
func (r *Repository) ListUnsettled() ([]BankTransaction, error) {
	var list []BankTransaction
	err := r.DB.
		Where("status IN ?", []string{StatusUnmatched, StatusPartiallyMatched}).
		Order("transaction_date ASC, id ASC").
		Find(&list).Error
	return list, err
}
