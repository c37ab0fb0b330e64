package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type SectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sections []*types.Section) ([]*types.Section, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Section, error)
	GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Section, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *sectionRepo) Create(ctx context.Context, tx *gorm.DB, sections []*types.Section) ([]*types.Section, error) {
	if len(sections) == 0 {
		return []*types.Section{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Section, error) {
	var results []*types.Section
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

func (r *sectionRepo) GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Section, error) {
	var results []*types.Section
	if len(chapterIDs) == 0 {
		return results, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Where("chapter_id IN ?", chapterIDs).
		Order("display_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.Section{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *sectionRepo) UpdateOrders(ctx context.Context, tx *gorm.DB, orders map[uuid.UUID]int) error {
	transaction := r.resolve(tx).WithContext(ctx)
	for id, order := range orders {
		if err := transaction.Model(&types.Section{}).
			Where("id = ?", id).
			Update("display_order", order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *sectionRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.Section{}).Error
}

func (r *sectionRepo) FullDeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error {
	if len(chapterIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("chapter_id IN ?", chapterIDs).
		Delete(&types.Section{}).Error
}
