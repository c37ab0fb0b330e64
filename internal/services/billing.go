package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
	"github.com/pybook/pybook-backend/internal/utils"
)

// BillingProvider abstracts the payment processor so the service logic can
// run against a fake in tests.
type BillingProvider interface {
	CreateCustomer(ctx context.Context, orgName, email string) (string, error)
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
	CheckoutURL(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
}

type stripeProvider struct {
	log *logger.Logger
}

// NewStripeProvider configures the global stripe client from STRIPE_SECRET_KEY.
func NewStripeProvider(log *logger.Logger) BillingProvider {
	stripe.Key = utils.GetEnv("STRIPE_SECRET_KEY", "", log)
	return &stripeProvider{log: log.With("client", "StripeProvider")}
}

func (sp *stripeProvider) CreateCustomer(ctx context.Context, orgName, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(orgName),
		Email: stripe.String(email),
	}
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return c.ID, nil
}

func (sp *stripeProvider) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return s.URL, nil
}

func (sp *stripeProvider) CheckoutURL(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// SubscriptionStatus is the snapshot the frontend drives gating from.
type SubscriptionStatus struct {
	Status             string `json:"status"`
	Tier               string `json:"tier"`
	SeatsUsed          int64  `json:"seatsUsed"`
	MaxSeats           int    `json:"maxSeats"`
	TrialDaysRemaining int    `json:"trialDaysRemaining"`
	HasBillingAccount  bool   `json:"hasBillingAccount"`
	CanInvite          bool   `json:"canInvite"`
	CanAuthor          bool   `json:"canAuthor"`
}

type BillingService interface {
	Status(ctx context.Context, orgID uuid.UUID) (*SubscriptionStatus, error)
	// SetupBilling creates the processor customer for the org if missing.
	SetupBilling(ctx context.Context, orgID uuid.UUID, ownerEmail string) (*types.Organization, error)
	// PortalURL returns the processor's self-serve portal link. An org
	// without a billing account gets ErrNotFound ("No billing account
	// found"); the client then calls SetupBilling and retries.
	PortalURL(ctx context.Context, orgID uuid.UUID, returnURL string) (string, error)
	Events(ctx context.Context, orgID uuid.UUID, limit int) ([]*types.BillingEvent, error)
	// TrialWarningSweep records a TRIAL_WARNING event for every org whose
	// trial ends in 7, 3 or 1 days, at most once per threshold. Clients watch
	// these events to notify owners.
	TrialWarningSweep(ctx context.Context) ([]TrialWarning, error)
}

// TrialWarning is one org flagged by TrialWarningSweep.
type TrialWarning struct {
	OrganizationID   uuid.UUID `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	DaysRemaining    int       `json:"daysRemaining"`
}

// trialWarningDays are the thresholds a warning fires at, in days before the
// trial ends.
var trialWarningDays = []int{7, 3, 1}

type billingService struct {
	db          *gorm.DB
	log         *logger.Logger
	orgRepo     repos.OrganizationRepo
	userRepo    repos.UserRepo
	billingRepo repos.BillingEventRepo
	provider    BillingProvider
}

func NewBillingService(
	db *gorm.DB,
	log *logger.Logger,
	orgRepo repos.OrganizationRepo,
	userRepo repos.UserRepo,
	billingRepo repos.BillingEventRepo,
	provider BillingProvider,
) BillingService {
	return &billingService{
		db:          db,
		log:         log.With("service", "BillingService"),
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		billingRepo: billingRepo,
		provider:    provider,
	}
}

func (bs *billingService) loadOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*types.Organization, error) {
	orgs, err := bs.orgRepo.GetByIDs(ctx, tx, []uuid.UUID{orgID})
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperrors.ErrNotFound)
	}
	return orgs[0], nil
}

func (bs *billingService) Status(ctx context.Context, orgID uuid.UUID) (*SubscriptionStatus, error) {
	org, err := bs.loadOrg(ctx, nil, orgID)
	if err != nil {
		return nil, err
	}
	seats, err := bs.userRepo.CountActiveByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("count seats: %w", err)
	}

	status := org.SubscriptionStatus
	trialDays := 0
	if org.TrialEndsAt != nil {
		remaining := time.Until(*org.TrialEndsAt)
		if remaining > 0 {
			trialDays = int(math.Ceil(remaining.Hours() / 24))
		} else if status == types.SubscriptionTrial {
			// A trial past its end date reads as expired even before any
			// background job has flipped the stored status.
			status = types.SubscriptionExpired
		}
	}

	active := status == types.SubscriptionTrial || status == types.SubscriptionActive
	return &SubscriptionStatus{
		Status:             status,
		Tier:               org.SubscriptionTier,
		SeatsUsed:          seats,
		MaxSeats:           org.MaxSeats,
		TrialDaysRemaining: trialDays,
		HasBillingAccount:  org.StripeCustomerID != "",
		CanInvite:          active && seats < int64(org.MaxSeats),
		CanAuthor:          active,
	}, nil
}

func (bs *billingService) SetupBilling(ctx context.Context, orgID uuid.UUID, ownerEmail string) (*types.Organization, error) {
	org, err := bs.loadOrg(ctx, nil, orgID)
	if err != nil {
		return nil, err
	}
	if org.StripeCustomerID != "" {
		return org, nil
	}
	customerID, err := bs.provider.CreateCustomer(ctx, org.Name, ownerEmail)
	if err != nil {
		return nil, err
	}
	err = bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := bs.orgRepo.UpdateFields(ctx, tx, orgID, map[string]interface{}{"stripe_customer_id": customerID}); uErr != nil {
			return fmt.Errorf("store customer id: %w", uErr)
		}
		event := &types.BillingEvent{
			OrganizationID: orgID,
			EventType:      types.BillingCustomerCreated,
		}
		if _, bErr := bs.billingRepo.Create(ctx, tx, []*types.BillingEvent{event}); bErr != nil {
			return fmt.Errorf("record billing event: %w", bErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	org.StripeCustomerID = customerID
	bs.log.Info("billing account created", "org_id", orgID)
	return org, nil
}

func (bs *billingService) PortalURL(ctx context.Context, orgID uuid.UUID, returnURL string) (string, error) {
	org, err := bs.loadOrg(ctx, nil, orgID)
	if err != nil {
		return "", err
	}
	if org.StripeCustomerID == "" {
		return "", fmt.Errorf("no billing account found: %w", apperrors.ErrNotFound)
	}
	url, err := bs.provider.PortalURL(ctx, org.StripeCustomerID, returnURL)
	if err != nil {
		return "", err
	}
	event := &types.BillingEvent{
		OrganizationID: orgID,
		EventType:      types.BillingPortalOpened,
	}
	if _, bErr := bs.billingRepo.Create(ctx, nil, []*types.BillingEvent{event}); bErr != nil {
		bs.log.Warn("failed to record portal event", "org_id", orgID, "error", bErr)
	}
	return url, nil
}

func (bs *billingService) TrialWarningSweep(ctx context.Context) ([]TrialWarning, error) {
	until := time.Now().Add(7 * 24 * time.Hour)
	orgs, err := bs.orgRepo.GetExpiringTrials(ctx, nil, until)
	if err != nil {
		return nil, fmt.Errorf("list expiring trials: %w", err)
	}

	warned := make([]TrialWarning, 0)
	for _, org := range orgs {
		if org.TrialEndsAt == nil {
			continue
		}
		daysLeft := int(math.Ceil(time.Until(*org.TrialEndsAt).Hours() / 24))
		if !warningThreshold(daysLeft) {
			continue
		}
		last, lErr := bs.billingRepo.GetLatestByOrgIDAndType(ctx, nil, org.ID, types.BillingTrialWarning)
		if lErr != nil {
			return nil, fmt.Errorf("load last warning: %w", lErr)
		}
		if last != nil && warningDaysFromMetadata(last.Metadata) <= daysLeft {
			// Already warned at this threshold or a closer one.
			continue
		}
		event := &types.BillingEvent{
			OrganizationID: org.ID,
			EventType:      types.BillingTrialWarning,
			Metadata:       mustJSON(map[string]interface{}{"days_remaining": daysLeft}),
		}
		if _, cErr := bs.billingRepo.Create(ctx, nil, []*types.BillingEvent{event}); cErr != nil {
			return nil, fmt.Errorf("record trial warning: %w", cErr)
		}
		bs.log.Info("trial warning recorded", "org_id", org.ID, "days_remaining", daysLeft)
		warned = append(warned, TrialWarning{
			OrganizationID:   org.ID,
			OrganizationName: org.Name,
			DaysRemaining:    daysLeft,
		})
	}
	return warned, nil
}

func warningThreshold(daysLeft int) bool {
	for _, d := range trialWarningDays {
		if d == daysLeft {
			return true
		}
	}
	return false
}

func warningDaysFromMetadata(raw datatypes.JSON) int {
	var meta struct {
		DaysRemaining int `json:"days_remaining"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return 0
	}
	return meta.DaysRemaining
}

func (bs *billingService) Events(ctx context.Context, orgID uuid.UUID, limit int) ([]*types.BillingEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := bs.billingRepo.GetByOrgID(ctx, nil, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list billing events: %w", err)
	}
	return events, nil
}
