package deal

import (
	"time"

	"gorm.io/gorm"
)

// Repository encapsulates data access for deals, subscriptions and
// valuations.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithDB returns a copy of the repo bound to a specific *gorm.DB (e.g. a tx).
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

func (r *Repository) Create(d *Deal) error {
	return r.DB.Create(d).Error
}

func (r *Repository) FindByID(id uint) (*Deal, error) {
	var d Deal
	if err := r.DB.Preload("Subscriptions").First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) List() ([]Deal, error) {
	var list []Deal
	err := r.DB.Find(&list).Error
	return list, err
}

func (r *Repository) Update(d *Deal) error {
	return r.DB.Save(d).Error
}

func (r *Repository) CreateSubscription(s *Subscription) error {
	return r.DB.Create(s).Error
}

// SubscriptionsForDeal returns every subscription on a deal.
func (r *Repository) SubscriptionsForDeal(dealID uint) ([]Subscription, error) {
	var subs []Subscription
	err := r.DB.Where("deal_id = ?", dealID).Order("investor_id ASC").Find(&subs).Error
	return subs, err
}

func (r *Repository) CreateValuation(v *Valuation) error {
	return r.DB.Create(v).Error
}

// LatestValuation returns the most recent valuation at or before asOf,
// or nil when no valuation exists yet.
func (r *Repository) LatestValuation(dealID uint, asOf time.Time) (*Valuation, error) {
	var v Valuation
	err := r.DB.
		Where("deal_id = ? AND as_of <= ?", dealID, asOf).
		Order("as_of DESC").
		First(&v).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
