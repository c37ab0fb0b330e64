package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/types"
)

type InvitationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, invitations []*types.Invitation) ([]*types.Invitation, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Invitation, error)
	GetByTokens(ctx context.Context, tx *gorm.DB, tokens []string) ([]*types.Invitation, error)
	GetPendingByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Invitation, error)
	PendingExists(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, email string) (bool, error)
	MarkAccepted(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error)
	FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error
}

type invitationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInvitationRepo(db *gorm.DB, baseLog *logger.Logger) InvitationRepo {
	return &invitationRepo{db: db, log: baseLog.With("repo", "InvitationRepo")}
}

func (r *invitationRepo) resolve(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *invitationRepo) Create(ctx context.Context, tx *gorm.DB, invitations []*types.Invitation) ([]*types.Invitation, error) {
	if len(invitations) == 0 {
		return []*types.Invitation{}, nil
	}
	if err := r.resolve(tx).WithContext(ctx).Create(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *invitationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Invitation, error) {
	var results []*types.Invitation
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

func (r *invitationRepo) GetByTokens(ctx context.Context, tx *gorm.DB, tokens []string) ([]*types.Invitation, error) {
	var results []*types.Invitation
	if len(tokens) == 0 {
		return results, nil
	}
	if err := r.resolve(tx).WithContext(ctx).
		Where("token IN ?", tokens).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *invitationRepo) GetPendingByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Invitation, error) {
	var results []*types.Invitation
	if err := r.resolve(tx).WithContext(ctx).
		Where("organization_id = ? AND accepted_at IS NULL AND expires_at > now()", orgID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *invitationRepo) PendingExists(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := r.resolve(tx).WithContext(ctx).
		Model(&types.Invitation{}).
		Where("organization_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > now()", orgID, email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invitationRepo) MarkAccepted(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return r.resolve(tx).WithContext(ctx).
		Model(&types.Invitation{}).
		Where("id = ?", id).
		Update("accepted_at", at).Error
}

func (r *invitationRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Invitation{}).Error
}

func (r *invitationRepo) FullDeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error) {
	result := r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("accepted_at IS NULL AND expires_at < ?", before).
		Delete(&types.Invitation{})
	return result.RowsAffected, result.Error
}

func (r *invitationRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	if len(orgIDs) == 0 {
		return nil
	}
	return r.resolve(tx).WithContext(ctx).
		Unscoped().
		Where("organization_id IN ?", orgIDs).
		Delete(&types.Invitation{}).Error
}
