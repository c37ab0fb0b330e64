package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type BookAccessRepo interface {
	// Create is idempotent: an existing (book, user) grant is left untouched.
	Create(ctx context.Context, tx *gorm.DB, grants []*types.BookAccess) ([]*types.BookAccess, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) ([]*types.BookAccess, error)
	GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.BookAccess, error)
	DeleteByBookAndUser(ctx context.Context, tx *gorm.DB, bookID, userID uuid.UUID) error
	FullDeleteByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) error
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type bookAccessRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookAccessRepo(db *gorm.DB, baseLog *logger.Logger) BookAccessRepo {
	return &bookAccessRepo{db: db, log: baseLog.With("repo", "BookAccessRepo")}
}

func (r *bookAccessRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookAccessRepo) Create(ctx context.Context, tx *gorm.DB, grants []*types.BookAccess) ([]*types.BookAccess, error) {
	if len(grants) == 0 {
		return []*types.BookAccess{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *bookAccessRepo) GetByUserID(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) ([]*types.BookAccess, error) {
	var results []*types.BookAccess
	if err := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookAccessRepo) GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.BookAccess, error) {
	var results []*types.BookAccess
	if err := r.resolve(tx).WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookAccessRepo) DeleteByBookAndUser(ctx context.Context, tx *gorm.DB, bookID, userID uuid.UUID) error {
	return r.resolve(tx).WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&types.BookAccess{}).Error
}

func (r *bookAccessRepo) FullDeleteByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) error {
	if len(bookIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Where("book_id IN ?", bookIDs).
		Delete(&types.BookAccess{}).Error
}

func (r *bookAccessRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Where("organization_id IN ?", orgIDs).
		Delete(&types.BookAccess{}).Error
}
