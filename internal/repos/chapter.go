package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type ChapterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chapters []*types.Chapter) ([]*types.Chapter, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chapter, error)
	GetByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) ([]*types.Chapter, error)
	UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, baseVersion int, fields map[string]interface{}) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) error
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return &chapterRepo{db: db, log: baseLog.With("repo", "ChapterRepo")}
}

func (r *chapterRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chapterRepo) Create(ctx context.Context, tx *gorm.DB, chapters []*types.Chapter) ([]*types.Chapter, error) {
	if len(chapters) == 0 {
		return []*types.Chapter{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *chapterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chapter, error) {
	var results []*types.Chapter
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

func (r *chapterRepo) GetByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) ([]*types.Chapter, error) {
	var results []*types.Chapter
	if len(bookIDs) == 0 {
		return results, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Where("book_id IN ?", bookIDs).
		Order("display_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chapterRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, baseVersion int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	result := r.resolve(tx).WithContext(ctx).
		Model(&types.Chapter{}).
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

func (r *chapterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.Chapter{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *chapterRepo) UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error {
	transaction := r.resolve(tx).WithContext(ctx)
	for id, order := range orders {
		if err := transaction.Model(&types.Chapter{}).
			Where("id = ?", id).
			Update("display_order", order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *chapterRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.Chapter{}).Error
}

func (r *chapterRepo) FullDeleteByBookIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) error {
	if len(bookIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("book_id IN ?", bookIDs).
		Delete(&types.Chapter{}).Error
}
