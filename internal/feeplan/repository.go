package feeplan

import (
	"gorm.io/gorm"
)

// Repository encapsulates data access for fee plans and components.
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

func (r *Repository) Create(p *FeePlan) error {
	return r.DB.Create(p).Error
}

func (r *Repository) FindByID(id uint) (*FeePlan, error) {
	var p FeePlan
	if err := r.DB.Preload("Components").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ActiveForDeal returns active plans scoped to a deal, components preloaded.
func (r *Repository) ActiveForDeal(dealID uint) ([]FeePlan, error) {
	var plans []FeePlan
	err := r.DB.
		Preload("Components").
		Where("deal_id = ? AND is_active = ?", dealID, true).
		Find(&plans).Error
	return plans, err
}

func (r *Repository) List() ([]FeePlan, error) {
	var plans []FeePlan
	err := r.DB.Preload("Components").Find(&plans).Error
	return plans, err
}

// Archive flips a plan inactive. The row stays; history referencing it
// survives.
func (r *Repository) Archive(id uint) error {
	res := r.DB.Model(&FeePlan{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) AddComponent(c *FeeComponent) error {
	return r.DB.Create(c).Error
}

func (r *Repository) FindComponent(id uint) (*FeeComponent, error) {
	var c FeeComponent
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
