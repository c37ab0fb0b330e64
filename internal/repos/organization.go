package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type OrganizationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, orgs []*types.Organization) ([]*types.Organization, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Organization, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Organization, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	// GetExpiringTrials lists orgs still marked TRIAL whose trial ends between
	// now and until.
	GetExpiringTrials(ctx context.Context, tx *gorm.DB, until time.Time) ([]*types.Organization, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type organizationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return &organizationRepo{db: db, log: baseLog.With("repo", "OrganizationRepo")}
}

func (r *organizationRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *organizationRepo) Create(ctx context.Context, tx *gorm.DB, orgs []*types.Organization) ([]*types.Organization, error) {
	if len(orgs) == 0 {
		return []*types.Organization{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Organization, error) {
	var results []*types.Organization
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

func (r *organizationRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Organization, error) {
	var results []*types.Organization
	if len(slugs) == 0 {
		return results, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Where("slug IN ?", slugs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *organizationRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := r.resolve(tx).WithContext(ctx).
		Model(&types.Organization{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *organizationRepo) GetExpiringTrials(ctx context.Context, tx *gorm.DB, until time.Time) ([]*types.Organization, error) {
	var results []*types.Organization
	if err := r.resolve(tx).WithContext(ctx).
		Where("subscription_status = ?", types.SubscriptionTrial).
		Where("trial_ends_at IS NOT NULL AND trial_ends_at >= now() AND trial_ends_at <= ?", until).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *organizationRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.Organization{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *organizationRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.Organization{}).Error
}
