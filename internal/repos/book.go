package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type BookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, books []*types.Book) ([]*types.Book, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Book, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Book, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, publishedOnly bool) ([]*types.Book, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	// UpdateVersioned applies fields only when the stored version matches
	// baseVersion, bumping version by one; a stale base surfaces ErrConflict.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, baseVersion int, fields map[string]interface{}) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, books []*types.Book) ([]*types.Book, error) {
	if len(books) == 0 {
		return []*types.Book{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Book, error) {
	var results []*types.Book
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

func (r *bookRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Book, error) {
	var results []*types.Book
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

func (r *bookRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, publishedOnly bool) ([]*types.Book, error) {
	var results []*types.Book
	q := r.resolve(tx).WithContext(ctx).Where("organization_id = ?", orgID)
	if publishedOnly {
		q = q.Where("is_published = true")
	}
	if err := q.Order("display_order ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := r.resolve(tx).WithContext(ctx).
		Model(&types.Book{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *bookRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, baseVersion int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	result := r.resolve(tx).WithContext(ctx).
		Model(&types.Book{}).
		Where("id = ? AND version = ?", id, baseVersion).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *bookRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.Book{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *bookRepo) UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error {
	transaction := r.resolve(tx).WithContext(ctx)
	for id, order := range orders {
		if err := transaction.Model(&types.Book{}).
			Where("id = ?", id).
			Update("display_order", order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *bookRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Book{}).Error
}

func (r *bookRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.Book{}).Error
}
