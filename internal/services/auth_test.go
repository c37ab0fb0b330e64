package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/requestdata"
	"github.com/pybook/pybook-backend/internal/types"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	svc := &authService{
		log:          testLog(t),
		jwtSecretKey: "test-secret",
		accessTTL:    time.Hour,
	}
	user := &types.User{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Role:           types.RoleAdmin,
	}
	token, err := svc.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	ctx, err := svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		t.Fatalf("no request data attached")
	}
	if rd.UserID != user.ID || rd.OrgID != user.OrganizationID || rd.Role != types.RoleAdmin {
		t.Fatalf("claims mismatch: %+v", rd)
	}
}

func TestSetContextFromTokenRejectsWrongKey(t *testing.T) {
	signer := &authService{log: testLog(t), jwtSecretKey: "key-a", accessTTL: time.Hour}
	verifier := &authService{log: testLog(t), jwtSecretKey: "key-b"}

	token, err := signer.generateAccessToken(&types.User{ID: uuid.New(), OrganizationID: uuid.New(), Role: types.RoleLearner})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}
	if _, err := verifier.SetContextFromToken(context.Background(), token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	svc := &authService{log: testLog(t), jwtSecretKey: "test-secret", accessTTL: -time.Minute}
	token, err := svc.generateAccessToken(&types.User{ID: uuid.New(), OrganizationID: uuid.New(), Role: types.RoleLearner})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSetContextFromTokenEmptyIsNoop(t *testing.T) {
	svc := &authService{log: testLog(t), jwtSecretKey: "test-secret"}
	ctx, err := svc.SetContextFromToken(context.Background(), "")
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if requestdata.GetRequestData(ctx) != nil {
		t.Fatalf("empty token must not attach identity")
	}
}

func TestRegisterOwnerValidation(t *testing.T) {
	svc := NewAuthService(nil, testLog(t), &fakeOrgRepo{}, &fakeUserRepo{}, nil, nil, nil, "secret", time.Hour, 24*time.Hour)

	cases := []RegisterInput{
		{Email: "a@b.com", Password: "longenough"},                      // missing org name
		{OrganizationName: "Acme", Password: "longenough"},              // missing email
		{OrganizationName: "Acme", Email: "a@b.com", Password: "short"}, // short password
	}
	for i, input := range cases {
		_, _, err := svc.RegisterOwner(context.Background(), input)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}
