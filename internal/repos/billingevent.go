package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type BillingEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.BillingEvent) ([]*types.BillingEvent, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, limit int) ([]*types.BillingEvent, error)
	// GetLatestByOrgIDAndType returns the newest event of the given type, or
	// nil when the org has none.
	GetLatestByOrgIDAndType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, eventType string) (*types.BillingEvent, error)
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type billingEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBillingEventRepo(db *gorm.DB, baseLog *logger.Logger) BillingEventRepo {
	return &billingEventRepo{db: db, log: baseLog.With("repo", "BillingEventRepo")}
}

func (r *billingEventRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *billingEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.BillingEvent) ([]*types.BillingEvent, error) {
	if len(events) == 0 {
		return []*types.BillingEvent{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *billingEventRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, limit int) ([]*types.BillingEvent, error) {
	var results []*types.BillingEvent
	q := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *billingEventRepo) GetLatestByOrgIDAndType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, eventType string) (*types.BillingEvent, error) {
	var results []*types.BillingEvent
	if err := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ? AND event_type = ?", orgID, eventType).
		Order("created_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *billingEventRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.BillingEvent{}).Error
}
