package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

func TestUserGetCrossTenantReadsAsNotFound(t *testing.T) {
	otherOrg := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: uuid.New(), OrganizationID: otherOrg}},
		nil, nil,
	)
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMemberOwnerProtected(t *testing.T) {
	orgID := uuid.New()
	ownerID := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: ownerID, OrganizationID: orgID, Role: types.RoleOwner}},
		nil, nil,
	)
	_, err := svc.UpdateMember(context.Background(), orgID, uuid.New(), ownerID, types.RoleAdmin, MemberUpdateInput{})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateMemberRoleWhitelist(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: memberID, OrganizationID: orgID, Role: types.RoleLearner}},
		nil, nil,
	)
	owner := types.RoleOwner
	_, err := svc.UpdateMember(context.Background(), orgID, uuid.New(), memberID, types.RoleAdmin, MemberUpdateInput{Role: &owner})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("promoting to OWNER must be rejected, got %v", err)
	}
}

func TestUpdateMemberRoleChangeRequiresAdmin(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: memberID, OrganizationID: orgID, Role: types.RoleLearner}},
		nil, nil,
	)
	instructor := types.RoleInstructor
	_, err := svc.UpdateMember(context.Background(), orgID, uuid.New(), memberID, types.RoleInstructor, MemberUpdateInput{Role: &instructor})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRemoveMemberOwnerNeverRemovable(t *testing.T) {
	orgID := uuid.New()
	ownerID := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: ownerID, OrganizationID: orgID, Role: types.RoleOwner}},
		nil, nil,
	)
	// Even the owner removing themselves is refused.
	if err := svc.RemoveMember(context.Background(), orgID, ownerID, ownerID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRemoveMemberNoSelfRemoval(t *testing.T) {
	orgID := uuid.New()
	adminID := uuid.New()
	svc := NewUserService(nil, testLog(t),
		&fakeUserRepo{user: &types.User{ID: adminID, OrganizationID: orgID, Role: types.RoleAdmin}},
		nil, nil,
	)
	if err := svc.RemoveMember(context.Background(), orgID, adminID, adminID); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
