package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

func TestOrgResetRequiresLiteralConfirmation(t *testing.T) {
	svc := NewOrganizationService(nil, testLog(t), nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)

	for _, confirmation := range []string{"", "delete", "Delete", "DELETE ", "yes"} {
		err := svc.Reset(context.Background(), uuid.New(), confirmation)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("confirmation %q: expected ErrInvalidArgument, got %v", confirmation, err)
		}
	}
}

func TestOrgUpdateRejectsEmptyName(t *testing.T) {
	empty := "   "
	svc := NewOrganizationService(nil, testLog(t), &fakeOrgRepo{}, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.Update(context.Background(), uuid.New(), OrgUpdateInput{Name: &empty})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOrgGetMissing(t *testing.T) {
	svc := NewOrganizationService(nil, testLog(t), &fakeOrgRepo{}, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrgUpdateWritesNormalizedFields(t *testing.T) {
	name := "  Acme   Labs "
	repo := &fakeOrgRepo{org: &types.Organization{Name: "Acme Labs"}}
	svc := NewOrganizationService(nil, testLog(t), repo, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	org, err := svc.Update(context.Background(), uuid.New(), OrgUpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if org.Name != "Acme Labs" {
		t.Fatalf("name: got=%q", org.Name)
	}
}
