package invoice

import (
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"gorm.io/gorm"
)

// Repository encapsulates data access for invoices.
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

func (r *Repository) Create(inv *Invoice) error {
	return r.DB.Create(inv).Error
}

func (r *Repository) FindByID(id uint) (*Invoice, error) {
	var inv Invoice
	if err := r.DB.Preload("Lines").First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByIDForUpdate loads an invoice under a row lock so concurrent payment
// mutations serialize. Must run inside a transaction.
func (r *Repository) FindByIDForUpdate(id uint) (*Invoice, error) {
	var inv Invoice
	err := db.ForUpdate(r.DB).First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns invoices, optionally filtered by deal and/or status.
func (r *Repository) List(dealID uint, status string) ([]Invoice, error) {
	q := r.DB.Preload("Lines")
	if dealID != 0 {
		q = q.Where("deal_id = ?", dealID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Invoice
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *Repository) Update(inv *Invoice) error {
	return r.DB.Save(inv).Error
}
