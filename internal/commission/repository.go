package commission

import (
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"gorm.io/gorm"
)

// Repository encapsulates data access for one commission kind. Every query
// is scoped to the kind the repository was built with.
type Repository struct {
	DB   *gorm.DB
	Kind Kind
}

func NewRepository(db *gorm.DB, kind Kind) *Repository {
	return &Repository{DB: db, Kind: kind}
}

func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db, Kind: r.Kind}
}

func (r *Repository) scoped() *gorm.DB {
	return r.DB.Where("kind = ?", r.Kind)
}

func (r *Repository) Create(c *Commission) error {
	c.Kind = r.Kind
	return r.DB.Create(c).Error
}

func (r *Repository) FindByID(id uint) (*Commission, error) {
	var c Commission
	if err := r.scoped().First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDsForUpdate loads a set of commissions under row locks. Must run
// inside a transaction.
func (r *Repository) FindByIDsForUpdate(ids []uint) ([]Commission, error) {
	var list []Commission
	err := db.ForUpdate(r.DB).
		Where("kind = ? AND id IN ?", r.Kind, ids).
		Find(&list).Error
	return list, err
}

// ListByPayee returns a payee's commissions, optionally filtered by status.
func (r *Repository) ListByPayee(payeeID uint, status string) ([]Commission, error) {
	q := r.scoped().Where("payee_entity_id = ?", payeeID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Commission
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

// ListByDeal returns a deal's commissions, optionally filtered by status.
func (r *Repository) ListByDeal(dealID uint, status string) ([]Commission, error) {
	q := r.scoped().Where("deal_id = ?", dealID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Commission
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

// GuardedTransition updates status and extra fields only when the row is
// still in the required state. Returns the number of rows moved, so exactly
// one of two concurrent callers observes 1.
func (r *Repository) GuardedTransition(id uint, from, to string, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.DB.Model(&Commission{}).
		Where("id = ? AND kind = ? AND status = ?", id, r.Kind, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
