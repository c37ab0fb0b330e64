package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type ResourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, resources []*types.OrgResource) ([]*types.OrgResource, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OrgResource, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]*types.OrgResource, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateOrderIndexes(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *resourceRepo) Create(ctx context.Context, tx *gorm.DB, resources []*types.OrgResource) ([]*types.OrgResource, error) {
	if len(resources) == 0 {
		return []*types.OrgResource{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OrgResource, error) {
	var results []*types.OrgResource
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]*types.OrgResource, error) {
	var results []*types.OrgResource
	q := r.resolve(tx).WithContext(ctx).Where("organization_id = ?", orgID)
	if activeOnly {
		q = q.Where("is_active = true")
	}
	if err := q.Order("order_index ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resourceRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.OrgResource{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *resourceRepo) UpdateOrderIndexes(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error {
	transaction := r.resolve(tx).WithContext(ctx)
	for id, order := range orders {
		if err := transaction.Model(&types.OrgResource{}).
			Where("id = ?", id).
			Update("order_index", order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *resourceRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.OrgResource{}).Error
}

func (r *resourceRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.OrgResource{}).Error
}
