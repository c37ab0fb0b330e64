package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

type MemberUpdateInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type UserService interface {
	Get(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error)
	Members(ctx context.Context, orgID uuid.UUID) ([]*types.User, error)
	// UpdateMember applies admin edits. Owners cannot be demoted or
	// deactivated by anyone but themselves.
	UpdateMember(ctx context.Context, orgID, actorID, userID uuid.UUID, actorRole string, input MemberUpdateInput) (*types.User, error)
	RemoveMember(ctx context.Context, orgID, actorID, userID uuid.UUID) error
	CompleteOnboarding(ctx context.Context, userID uuid.UUID) error
	SetAvatarFromImage(ctx context.Context, orgID, userID uuid.UUID, raw []byte) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
	}
}

func (us *userService) Get(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 || users[0].OrganizationID != orgID {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return users[0], nil
}

func (us *userService) Members(ctx context.Context, orgID uuid.UUID) ([]*types.User, error) {
	members, err := us.userRepo.GetByOrgIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (us *userService) UpdateMember(ctx context.Context, orgID, actorID, userID uuid.UUID, actorRole string, input MemberUpdateInput) (*types.User, error) {
	target, err := us.Get(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == types.RoleOwner && actorID != userID {
		return nil, fmt.Errorf("only the owner can modify the owner account: %w", apperrors.ErrForbidden)
	}

	fields := map[string]interface{}{}
	if input.FirstName != nil {
		fields["first_name"] = normalization.ParseInputString(*input.FirstName)
	}
	if input.LastName != nil {
		fields["last_name"] = normalization.ParseInputString(*input.LastName)
	}
	if input.Role != nil {
		role := *input.Role
		switch role {
		case types.RoleAdmin, types.RoleInstructor, types.RoleLearner:
		default:
			return nil, fmt.Errorf("invalid role %q: %w", role, apperrors.ErrInvalidArgument)
		}
		if !types.RoleAtLeast(actorRole, types.RoleAdmin) {
			return nil, fmt.Errorf("role changes require ADMIN: %w", apperrors.ErrForbidden)
		}
		fields["role"] = role
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if len(fields) > 0 {
		if uErr := us.userRepo.UpdateFields(ctx, nil, userID, fields); uErr != nil {
			return nil, fmt.Errorf("update member: %w", uErr)
		}
	}
	return us.Get(ctx, orgID, userID)
}

func (us *userService) RemoveMember(ctx context.Context, orgID, actorID, userID uuid.UUID) error {
	target, err := us.Get(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if target.Role == types.RoleOwner {
		return fmt.Errorf("the owner account cannot be removed: %w", apperrors.ErrForbidden)
	}
	if actorID == userID {
		return fmt.Errorf("use account deactivation instead of self-removal: %w", apperrors.ErrInvalidArgument)
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := us.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{userID}); dErr != nil {
			return fmt.Errorf("revoke member tokens: %w", dErr)
		}
		if dErr := us.userRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{userID}); dErr != nil {
			return fmt.Errorf("remove member: %w", dErr)
		}
		return nil
	})
}

func (us *userService) CompleteOnboarding(ctx context.Context, userID uuid.UUID) error {
	if err := us.userRepo.UpdateFields(ctx, nil, userID, map[string]interface{}{"onboarding_completed": true}); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	return nil
}

func (us *userService) SetAvatarFromImage(ctx context.Context, orgID, userID uuid.UUID, raw []byte) (*types.User, error) {
	user, err := us.Get(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if aErr := us.avatarService.SetUserAvatarFromImage(ctx, tx, user, raw); aErr != nil {
			return aErr
		}
		return us.userRepo.UpdateFields(ctx, tx, userID, map[string]interface{}{"avatar_url": user.AvatarURL})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
