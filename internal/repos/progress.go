package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type ProgressRepo interface {
	// Upsert inserts or updates the single (user, chapter) progress row.
	Upsert(ctx context.Context, tx *gorm.DB, progress *types.Progress) (*types.Progress, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Progress, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Progress, error)
	GetByUserAndChapter(ctx context.Context, tx *gorm.DB, userID, chapterID uuid.UUID) (*types.Progress, error)
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *types.Progress) (*types.Progress, error) {
	if err := r.resolve(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "chapter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed", "completed_at", "time_spent", "score", "updated_at",
			}),
		}).
		Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *progressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Progress, error) {
	var results []*types.Progress
	if err := r.resolve(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Progress, error) {
	var results []*types.Progress
	if err := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetByUserAndChapter(ctx context.Context, tx *gorm.DB, userID, chapterID uuid.UUID) (*types.Progress, error) {
	var result types.Progress
	err := r.resolve(tx).WithContext(ctx).
		Where("user_id = ? AND chapter_id = ?", userID, chapterID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *progressRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.Progress{}).Error
}
