package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

// ExecutionFilter narrows telemetry queries; zero values mean "no filter".
type ExecutionFilter struct {
	ChapterID *uuid.UUID
	UserID    *uuid.UUID
	SectionID *uuid.UUID
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// ExecutionStat is one aggregated row per user x chapter x section.
type ExecutionStat struct {
	OrganizationID       uuid.UUID `json:"organizationId"`
	UserID               uuid.UUID `json:"userId"`
	FirstName            string    `json:"firstName,omitempty"`
	LastName             string    `json:"lastName"`
	Email                string    `json:"email"`
	ChapterID            uuid.UUID `json:"chapterId"`
	ChapterTitle         string    `json:"chapterTitle"`
	SectionID            uuid.UUID `json:"sectionId"`
	TotalExecutions      int64     `json:"totalExecutions"`
	SuccessfulExecutions int64     `json:"successfulExecutions"`
	ErrorExecutions      int64     `json:"errorExecutions"`
	FirstExecution       time.Time `json:"firstExecution"`
	LastExecution        time.Time `json:"lastExecution"`
}

type CodeExecutionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, executions []*types.CodeExecution) ([]*types.CodeExecution, error)
	ListByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ExecutionFilter) ([]*types.CodeExecution, error)
	CountByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ExecutionFilter) (int64, error)
	StatsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*ExecutionStat, error)
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type codeExecutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCodeExecutionRepo(db *gorm.DB, baseLog *logger.Logger) CodeExecutionRepo {
	return &codeExecutionRepo{db: db, log: baseLog.With("repo", "CodeExecutionRepo")}
}

func (r *codeExecutionRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *codeExecutionRepo) Create(ctx context.Context, tx *gorm.DB, executions []*types.CodeExecution) ([]*types.CodeExecution, error) {
	if len(executions) == 0 {
		return []*types.CodeExecution{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

func applyExecutionFilter(q *gorm.DB, filter ExecutionFilter) *gorm.DB {
	if filter.ChapterID != nil {
		q = q.Where("chapter_id = ?", *filter.ChapterID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.SectionID != nil {
		q = q.Where("section_id = ?", *filter.SectionID)
	}
	if filter.Status != "" {
		q = q.Where("execution_status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		q = q.Where("executed_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("executed_at <= ?", *filter.DateTo)
	}
	return q
}

func (r *codeExecutionRepo) ListByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ExecutionFilter) ([]*types.CodeExecution, error) {
	var results []*types.CodeExecution
	q := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ?", orgID)
	q = applyExecutionFilter(q, filter)
	q = q.Order("executed_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Preload("User").Preload("Chapter").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *codeExecutionRepo) CountByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ExecutionFilter) (int64, error) {
	var count int64
	q := r.resolve(tx).WithContext(ctx).
		Model(&types.CodeExecution{}).
		Where("organization_id = ?", orgID)
	q = applyExecutionFilter(q, filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *codeExecutionRepo) StatsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*ExecutionStat, error) {
	var results []*ExecutionStat
	err := r.resolve(tx).WithContext(ctx).Raw(`
		SELECT
			ce.organization_id,
			ce.user_id,
			u.first_name,
			u.last_name,
			u.email,
			ce.chapter_id,
			ch.title AS chapter_title,
			ce.section_id,
			COUNT(*) AS total_executions,
			COUNT(*) FILTER (WHERE ce.execution_status = 'success') AS successful_executions,
			COUNT(*) FILTER (WHERE ce.execution_status = 'error') AS error_executions,
			MIN(ce.executed_at) AS first_execution,
			MAX(ce.executed_at) AS last_execution
		FROM code_execution ce
		JOIN "user" u ON u.id = ce.user_id
		JOIN chapter ch ON ch.id = ce.chapter_id
		WHERE ce.organization_id = ?
		GROUP BY ce.organization_id, ce.user_id, u.first_name, u.last_name, u.email,
		         ce.chapter_id, ch.title, ce.section_id
		ORDER BY MAX(ce.executed_at) DESC
	`, orgID).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *codeExecutionRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.CodeExecution{}).Error
}
