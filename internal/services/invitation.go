package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

const invitationTTL = 7 * 24 * time.Hour

type AcceptInvitationInput struct {
	Token     string `json:"token"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type InvitationService interface {
	// Send creates a pending invitation, enforcing the org seat limit up
	// front so invites that could never be accepted are rejected early.
	Send(ctx context.Context, orgID, invitedBy uuid.UUID, email, role string) (*types.Invitation, error)
	// Validate returns the invitation and its org for an unexpired,
	// unaccepted token.
	Validate(ctx context.Context, token string) (*types.Invitation, *types.Organization, error)
	// Accept creates the member user and marks the invitation accepted.
	Accept(ctx context.Context, input AcceptInvitationInput) (*types.User, error)
	Pending(ctx context.Context, orgID uuid.UUID) ([]*types.Invitation, error)
	Revoke(ctx context.Context, orgID, invitationID uuid.UUID) error
	// CleanupExpired hard-deletes invitations past their expiry.
	CleanupExpired(ctx context.Context) (int64, error)
}

type invitationService struct {
	db             *gorm.DB
	log            *logger.Logger
	invitationRepo repos.InvitationRepo
	orgRepo        repos.OrganizationRepo
	userRepo       repos.UserRepo
	avatarService  AvatarService
}

func NewInvitationService(
	db *gorm.DB,
	log *logger.Logger,
	invitationRepo repos.InvitationRepo,
	orgRepo repos.OrganizationRepo,
	userRepo repos.UserRepo,
	avatarService AvatarService,
) InvitationService {
	return &invitationService{
		db:             db,
		log:            log.With("service", "InvitationService"),
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		avatarService:  avatarService,
	}
}

func (is *invitationService) Send(ctx context.Context, orgID, invitedBy uuid.UUID, email, role string) (*types.Invitation, error) {
	email = normalization.ParseEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", apperrors.ErrInvalidArgument)
	}
	switch role {
	case types.RoleAdmin, types.RoleInstructor, types.RoleLearner:
	case "":
		role = types.RoleLearner
	default:
		return nil, fmt.Errorf("invalid invitation role %q: %w", role, apperrors.ErrInvalidArgument)
	}

	orgs, err := is.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperrors.ErrNotFound)
	}
	org := orgs[0]

	seats, err := is.userRepo.CountActiveByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("count seats: %w", err)
	}
	if seats >= int64(org.MaxSeats) {
		return nil, fmt.Errorf("organization is at its seat limit (%d): %w", org.MaxSeats, apperrors.ErrForbidden)
	}

	exists, err := is.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("a user with that email already exists: %w", apperrors.ErrConflict)
	}
	pending, err := is.invitationRepo.PendingExists(ctx, nil, orgID, email)
	if err != nil {
		return nil, fmt.Errorf("check pending invitation: %w", err)
	}
	if pending {
		return nil, fmt.Errorf("an invitation for that email is already pending: %w", apperrors.ErrConflict)
	}

	token, err := invitationToken()
	if err != nil {
		return nil, err
	}
	invitation := &types.Invitation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		Token:          token,
		InvitedBy:      invitedBy,
		ExpiresAt:      time.Now().Add(invitationTTL),
	}
	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := is.invitationRepo.Create(ctx, tx, []*types.Invitation{invitation})
		if cErr != nil {
			return fmt.Errorf("create invitation: %w", cErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	is.log.Info("invitation sent", "org_id", orgID, "email", email, "role", role)
	return invitation, nil
}

func invitationToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func (is *invitationService) Validate(ctx context.Context, token string) (*types.Invitation, *types.Organization, error) {
	invitations, err := is.invitationRepo.GetByTokens(ctx, nil, []string{token})
	if err != nil {
		return nil, nil, fmt.Errorf("lookup invitation: %w", err)
	}
	if len(invitations) == 0 {
		return nil, nil, fmt.Errorf("invitation: %w", apperrors.ErrNotFound)
	}
	invitation := invitations[0]
	if invitation.AcceptedAt != nil {
		return nil, nil, fmt.Errorf("invitation already accepted: %w", apperrors.ErrConflict)
	}
	if invitation.ExpiresAt.Before(time.Now()) {
		return nil, nil, fmt.Errorf("invitation expired: %w", apperrors.ErrInvalidArgument)
	}
	orgs, err := is.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{invitation.OrganizationID})
	if err != nil {
		return nil, nil, fmt.Errorf("load organization: %w", err)
	}
	if len(orgs) == 0 {
		return nil, nil, fmt.Errorf("organization: %w", apperrors.ErrNotFound)
	}
	return invitation, orgs[0], nil
}

func (is *invitationService) Accept(ctx context.Context, input AcceptInvitationInput) (*types.User, error) {
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", apperrors.ErrInvalidArgument)
	}
	invitation, org, err := is.Validate(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	// Seats are re-checked at accept time; the org may have filled up since
	// the invite was sent.
	seats, err := is.userRepo.CountActiveByOrgID(ctx, nil, org.ID)
	if err != nil {
		return nil, fmt.Errorf("count seats: %w", err)
	}
	if seats >= int64(org.MaxSeats) {
		return nil, fmt.Errorf("organization is at its seat limit (%d): %w", org.MaxSeats, apperrors.ErrForbidden)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          invitation.Email,
		FirstName:      normalization.ParseInputString(input.FirstName),
		LastName:       normalization.ParseInputString(input.LastName),
		Password:       string(hashed),
		Role:           invitation.Role,
		InvitedBy:      &invitation.InvitedBy,
		IsActive:       true,
	}
	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if aErr := is.avatarService.CreateUserAvatar(ctx, tx, user); aErr != nil {
			is.log.Warn("avatar generation failed", "user_id", user.ID, "error", aErr)
		}
		if _, cErr := is.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return fmt.Errorf("create member user: %w", cErr)
		}
		if mErr := is.invitationRepo.MarkAccepted(ctx, tx, invitation.ID, time.Now()); mErr != nil {
			return fmt.Errorf("mark invitation accepted: %w", mErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	is.log.Info("invitation accepted", "org_id", org.ID, "user_id", user.ID)
	return user, nil
}

func (is *invitationService) Pending(ctx context.Context, orgID uuid.UUID) ([]*types.Invitation, error) {
	rows, err := is.invitationRepo.GetPendingByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	return rows, nil
}

func (is *invitationService) Revoke(ctx context.Context, orgID, invitationID uuid.UUID) error {
	invitations, err := is.invitationRepo.GetByIDs(ctx, nil, []uuid.UUID{invitationID})
	if err != nil {
		return fmt.Errorf("load invitation: %w", err)
	}
	if len(invitations) == 0 || invitations[0].OrganizationID != orgID {
		return fmt.Errorf("invitation %s: %w", invitationID, apperrors.ErrNotFound)
	}
	if invitations[0].AcceptedAt != nil {
		return fmt.Errorf("invitation already accepted: %w", apperrors.ErrConflict)
	}
	return is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return is.invitationRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{invitationID})
	})
}

func (is *invitationService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := is.invitationRepo.FullDeleteExpired(ctx, nil, time.Now())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired invitations: %w", err)
	}
	if n > 0 {
		is.log.Info("expired invitations removed", "count", n)
	}
	return n, nil
}
