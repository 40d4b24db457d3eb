package feeevent

import (
	"github.com/Ghiles-CTO/Versotech-sub025/internal/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsulates data access for fee events.
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

// Upsert inserts an event unless one already exists for the same
// (component, investor, eventDate). Returns true when a row was created.
// The conflict target is the storage-level unique index, so two concurrent
// schedulers cannot double-accrue.
func (r *Repository) Upsert(e *FeeEvent) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "fee_component_id"},
			{Name: "investor_id"},
			{Name: "event_date"},
		},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) FindByID(id uint) (*FeeEvent, error) {
	var e FeeEvent
	if err := r.DB.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByIDs loads a set of events; errors if any id is missing.
func (r *Repository) FindByIDs(ids []uint) ([]FeeEvent, error) {
	var events []FeeEvent
	if err := r.DB.Where("id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	if len(events) != len(ids) {
		return nil, apperror.Validationf("%d of %d fee events not found", len(ids)-len(events), len(ids))
	}
	return events, nil
}

// ListByDeal returns events for a deal, optionally filtered by status.
func (r *Repository) ListByDeal(dealID uint, status string) ([]FeeEvent, error) {
	q := r.DB.Where("deal_id = ?", dealID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var events []FeeEvent
	err := q.Order("event_date ASC, id ASC").Find(&events).Error
	return events, err
}

// ListByInvoice returns the events attached to an invoice.
func (r *Repository) ListByInvoice(invoiceID uint) ([]FeeEvent, error) {
	var events []FeeEvent
	err := r.DB.Where("invoice_id = ?", invoiceID).Find(&events).Error
	return events, err
}

// Void moves an event to voided. Only accrued or invoiced events can be
// voided; paid events are reversed via their invoice.
func (r *Repository) Void(id uint) (*FeeEvent, error) {
	e, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusAccrued && e.Status != StatusInvoiced {
		return nil, &apperror.StateConflictError{Entity: "fee event", ID: id, Current: e.Status, Required: "accrued or invoiced"}
	}
	res := r.DB.Model(&FeeEvent{}).
		Where("id = ? AND status = ?", id, e.Status).
		Update("status", StatusVoided)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperror.StateConflictError{Entity: "fee event", ID: id, Current: "changed concurrently", Required: e.Status}
	}
	e.Status = StatusVoided
	return e, nil
}
