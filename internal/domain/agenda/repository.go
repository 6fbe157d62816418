package agenda

import (
	"context"

	"gorm.io/gorm"
)

// Repository holds the event queries. It also serves the contract
// package's credit engine: CountDone and CountActive satisfy
// contract.EventCounter.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountDone counts completed (Fatto), non-deleted events charged
// against the contract. This recount IS the credits_used value.
func (r *Repository) CountDone(ctx context.Context, contractID int64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Event{}).
		Where("contract_id = ? AND stato = ?", contractID, StateFatto).
		Count(&n).Error
	return int(n), err
}

// CountActive counts non-deleted, non-cancelled events referencing the
// contract. Used by the contract delete guard.
func (r *Repository) CountActive(ctx context.Context, contractID int64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Event{}).
		Where("contract_id = ? AND stato <> ?", contractID, StateCancellato).
		Count(&n).Error
	return int(n), err
}
