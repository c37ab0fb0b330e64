package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/requestdata"
	"github.com/pybook/pybook-backend/internal/types"
	"github.com/pybook/pybook-backend/internal/utils"
)

const trialDays = 14

// RegisterInput is the self-serve signup payload: a new organization plus its
// owner account, created together.
type RegisterInput struct {
	OrganizationName string
	Industry         string
	Email            string
	Password         string
	FirstName        string
	LastName         string
}

type AuthService interface {
	// RegisterOwner creates the organization and its OWNER user in one
	// transaction, starting the trial subscription.
	RegisterOwner(ctx context.Context, input RegisterInput) (*types.User, *types.Organization, error)
	Login(ctx context.Context, email, password string) (string, string, *types.User, error)
	Refresh(ctx context.Context) (string, string, error)
	Logout(ctx context.Context) error
	// SetContextFromToken verifies the access token and attaches the request
	// identity (user, org, role) to the context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	orgRepo       repos.OrganizationRepo
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	billingRepo   repos.BillingEventRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	orgRepo repos.OrganizationRepo,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	billingRepo repos.BillingEventRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		orgRepo:       orgRepo,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		billingRepo:   billingRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterOwner(ctx context.Context, input RegisterInput) (*types.User, *types.Organization, error) {
	orgName := normalization.ParseInputString(input.OrganizationName)
	email := normalization.ParseEmail(input.Email)
	if orgName == "" {
		return nil, nil, fmt.Errorf("organization name is required: %w", apperrors.ErrInvalidArgument)
	}
	if email == "" {
		return nil, nil, fmt.Errorf("email is required: %w", apperrors.ErrInvalidArgument)
	}
	if len(input.Password) < 8 {
		return nil, nil, fmt.Errorf("password must be at least 8 characters: %w", apperrors.ErrInvalidArgument)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("email already registered: %w", apperrors.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	trialEnds := time.Now().Add(trialDays * 24 * time.Hour)
	org := &types.Organization{
		ID:                 uuid.New(),
		Name:               orgName,
		Industry:           normalization.ParseInputString(input.Industry),
		SubscriptionStatus: types.SubscriptionTrial,
		SubscriptionTier:   types.TierStarter,
		MaxSeats:           utils.SeatsForTier(types.TierStarter),
		TrialEndsAt:        &trialEnds,
	}
	user := &types.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          email,
		FirstName:      normalization.ParseInputString(input.FirstName),
		LastName:       normalization.ParseInputString(input.LastName),
		Password:       string(hashed),
		Role:           types.RoleOwner,
		IsActive:       true,
	}

	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, sErr := as.uniqueOrgSlug(ctx, tx, orgName)
		if sErr != nil {
			return sErr
		}
		org.Slug = slug
		if _, cErr := as.orgRepo.Create(ctx, tx, []*types.Organization{org}); cErr != nil {
			return fmt.Errorf("create organization: %w", cErr)
		}
		if aErr := as.avatarService.CreateUserAvatar(ctx, tx, user); aErr != nil {
			// Avatar generation is cosmetic; registration proceeds without one.
			as.log.Warn("avatar generation failed", "user_id", user.ID, "error", aErr)
		}
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return fmt.Errorf("create owner user: %w", cErr)
		}
		event := &types.BillingEvent{
			OrganizationID: org.ID,
			EventType:      types.BillingTrialStarted,
		}
		if _, bErr := as.billingRepo.Create(ctx, tx, []*types.BillingEvent{event}); bErr != nil {
			return fmt.Errorf("record trial start: %w", bErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	as.log.Info("organization registered", "org_id", org.ID, "owner_id", user.ID)
	return user, org, nil
}

func (as *authService) uniqueOrgSlug(ctx context.Context, tx *gorm.DB, name string) (string, error) {
	base := normalization.Slugify(name)
	if base == "" {
		base = "org"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := as.orgRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", fmt.Errorf("check org slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, *types.User, error) {
	email = normalization.ParseEmail(email)
	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return "", "", nil, fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}
	user := users[0]
	if !user.IsActive {
		return "", "", nil, fmt.Errorf("account deactivated: %w", apperrors.ErrForbidden)
	}
	if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); hErr != nil {
		return "", "", nil, fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Stale tokens for this user are rotated out on every login.
		found, ftErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
		if ftErr != nil {
			return fmt.Errorf("check user tokens: %w", ftErr)
		}
		if len(found) > 0 {
			ids := make([]uuid.UUID, 0, len(found))
			for _, t := range found {
				ids = append(ids, t.ID)
			}
			if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, ids); dErr != nil {
				return fmt.Errorf("delete stale tokens: %w", dErr)
			}
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); cErr != nil {
			return fmt.Errorf("create user token: %w", cErr)
		}
		return nil
	})
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

func (as *authService) Refresh(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", fmt.Errorf("no refresh token in request: %w", apperrors.ErrUnauthorized)
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, ftErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if ftErr != nil {
			return fmt.Errorf("lookup refresh token: %w", ftErr)
		}
		if len(found) == 0 {
			return fmt.Errorf("unknown refresh token: %w", apperrors.ErrUnauthorized)
		}
		existing := found[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
				return fmt.Errorf("delete expired token: %w", dErr)
			}
			return fmt.Errorf("refresh token expired: %w", apperrors.ErrUnauthorized)
		}
		users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if uErr != nil {
			return fmt.Errorf("load user for refresh: %w", uErr)
		}
		if len(users) == 0 {
			return fmt.Errorf("no user for refresh token: %w", apperrors.ErrUnauthorized)
		}
		user := users[0]
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		newToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{newToken}); cErr != nil {
			return fmt.Errorf("create rotated token: %w", cErr)
		}
		if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
			return fmt.Errorf("remove old refresh token: %w", dErr)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("no request identity: %w", apperrors.ErrUnauthorized)
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); dErr != nil {
			return fmt.Errorf("delete user tokens: %w", dErr)
		}
		return nil
	})
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		OrgID: user.OrganizationID,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", apperrors.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", apperrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject in token: %w", apperrors.ErrUnauthorized)
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		OrgID:       claims.OrgID,
		Role:        claims.Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
