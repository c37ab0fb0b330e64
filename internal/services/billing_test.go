package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/types"
)

type fakeOrgRepo struct {
	org      *types.Organization
	expiring []*types.Organization
}

func (f *fakeOrgRepo) Create(ctx context.Context, tx *gorm.DB, orgs []*types.Organization) ([]*types.Organization, error) {
	return orgs, nil
}

func (f *fakeOrgRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Organization, error) {
	if f.org == nil {
		return nil, nil
	}
	return []*types.Organization{f.org}, nil
}

func (f *fakeOrgRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Organization, error) {
	return nil, nil
}

func (f *fakeOrgRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	return false, nil
}

func (f *fakeOrgRepo) GetExpiringTrials(ctx context.Context, tx *gorm.DB, until time.Time) ([]*types.Organization, error) {
	return f.expiring, nil
}

func (f *fakeOrgRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeOrgRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakeUserRepo struct {
	activeSeats int64
	user        *types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	if f.user == nil {
		return nil, nil
	}
	return []*types.User{f.user}, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) ([]*types.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return false, nil
}

func (f *fakeUserRepo) CountActiveByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error) {
	return f.activeSeats, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeUserRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

func (f *fakeUserRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	return nil
}

type fakeBillingEventRepo struct {
	created []*types.BillingEvent
}

func (f *fakeBillingEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.BillingEvent) ([]*types.BillingEvent, error) {
	f.created = append(f.created, events...)
	return events, nil
}

func (f *fakeBillingEventRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, limit int) ([]*types.BillingEvent, error) {
	return f.created, nil
}

func (f *fakeBillingEventRepo) GetLatestByOrgIDAndType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, eventType string) (*types.BillingEvent, error) {
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].OrganizationID == orgID && f.created[i].EventType == eventType {
			return f.created[i], nil
		}
	}
	return nil, nil
}

func (f *fakeBillingEventRepo) FullDeleteByOrgIDs(ctx context.Context, tx *gorm.DB, orgIDs []uuid.UUID) error {
	return nil
}

type fakeBillingProvider struct {
	portalURL   string
	customerID  string
	portalCalls int
}

func (f *fakeBillingProvider) CreateCustomer(ctx context.Context, orgName, email string) (string, error) {
	return f.customerID, nil
}

func (f *fakeBillingProvider) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	f.portalCalls++
	return f.portalURL, nil
}

func (f *fakeBillingProvider) CheckoutURL(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	return "", nil
}

func TestBillingStatusActiveTrial(t *testing.T) {
	ends := time.Now().Add(5*24*time.Hour + time.Hour)
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{org: &types.Organization{
			SubscriptionStatus: types.SubscriptionTrial,
			SubscriptionTier:   types.TierStarter,
			MaxSeats:           25,
			TrialEndsAt:        &ends,
		}},
		&fakeUserRepo{activeSeats: 10},
		&fakeBillingEventRepo{},
		&fakeBillingProvider{},
	)

	status, err := svc.Status(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Status != types.SubscriptionTrial {
		t.Fatalf("status: got=%q", status.Status)
	}
	if status.TrialDaysRemaining != 6 {
		t.Fatalf("trial days: want=6 got=%d", status.TrialDaysRemaining)
	}
	if !status.CanInvite || !status.CanAuthor {
		t.Fatalf("active trial must allow inviting and authoring: %+v", status)
	}
	if status.HasBillingAccount {
		t.Fatalf("no customer id yet")
	}
}

func TestBillingStatusExpiredTrial(t *testing.T) {
	ends := time.Now().Add(-time.Hour)
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{org: &types.Organization{
			SubscriptionStatus: types.SubscriptionTrial,
			MaxSeats:           25,
			TrialEndsAt:        &ends,
		}},
		&fakeUserRepo{activeSeats: 1},
		&fakeBillingEventRepo{},
		&fakeBillingProvider{},
	)

	status, err := svc.Status(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Status != types.SubscriptionExpired {
		t.Fatalf("lapsed trial must read expired, got %q", status.Status)
	}
	if status.CanInvite || status.CanAuthor {
		t.Fatalf("expired org must be gated: %+v", status)
	}
}

func TestBillingStatusSeatLimitBlocksInvites(t *testing.T) {
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{org: &types.Organization{
			SubscriptionStatus: types.SubscriptionActive,
			MaxSeats:           25,
		}},
		&fakeUserRepo{activeSeats: 25},
		&fakeBillingEventRepo{},
		&fakeBillingProvider{},
	)

	status, err := svc.Status(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.CanInvite {
		t.Fatalf("full org must not invite")
	}
	if !status.CanAuthor {
		t.Fatalf("seat limit must not block authoring")
	}
}

func TestBillingPortalRequiresAccount(t *testing.T) {
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{org: &types.Organization{SubscriptionStatus: types.SubscriptionActive}},
		&fakeUserRepo{},
		&fakeBillingEventRepo{},
		&fakeBillingProvider{},
	)

	_, err := svc.PortalURL(context.Background(), uuid.New(), "https://app.example.com/settings")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTrialWarningSweep(t *testing.T) {
	soon := time.Now().Add(3*24*time.Hour - time.Hour)   // 3 days out
	far := time.Now().Add(5*24*time.Hour - time.Hour)    // 5 days: not a threshold
	urgent := time.Now().Add(1*24*time.Hour - time.Hour) // 1 day out
	warnMe := &types.Organization{ID: uuid.New(), Name: "Closing", SubscriptionStatus: types.SubscriptionTrial, TrialEndsAt: &soon}
	notYet := &types.Organization{ID: uuid.New(), Name: "Comfortable", SubscriptionStatus: types.SubscriptionTrial, TrialEndsAt: &far}
	lastDay := &types.Organization{ID: uuid.New(), Name: "Urgent", SubscriptionStatus: types.SubscriptionTrial, TrialEndsAt: &urgent}

	events := &fakeBillingEventRepo{}
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{expiring: []*types.Organization{warnMe, notYet, lastDay}},
		&fakeUserRepo{},
		events,
		&fakeBillingProvider{},
	)

	warned, err := svc.TrialWarningSweep(context.Background())
	if err != nil {
		t.Fatalf("TrialWarningSweep: %v", err)
	}
	if len(warned) != 2 {
		t.Fatalf("warned orgs: want=2 got=%d (%+v)", len(warned), warned)
	}
	days := map[uuid.UUID]int{}
	for _, w := range warned {
		days[w.OrganizationID] = w.DaysRemaining
	}
	if days[warnMe.ID] != 3 || days[lastDay.ID] != 1 {
		t.Fatalf("thresholds: got=%v", days)
	}
	if len(events.created) != 2 || events.created[0].EventType != types.BillingTrialWarning {
		t.Fatalf("warning events not recorded: %+v", events.created)
	}
}

func TestTrialWarningSweepDoesNotRepeatThreshold(t *testing.T) {
	ends := time.Now().Add(3*24*time.Hour - time.Hour)
	org := &types.Organization{ID: uuid.New(), Name: "Closing", SubscriptionStatus: types.SubscriptionTrial, TrialEndsAt: &ends}

	events := &fakeBillingEventRepo{}
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{expiring: []*types.Organization{org}},
		&fakeUserRepo{},
		events,
		&fakeBillingProvider{},
	)

	if _, err := svc.TrialWarningSweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	warned, err := svc.TrialWarningSweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(warned) != 0 {
		t.Fatalf("same threshold warned twice: %+v", warned)
	}
	if len(events.created) != 1 {
		t.Fatalf("events: want=1 got=%d", len(events.created))
	}
}

func TestBillingPortalRecordsEvent(t *testing.T) {
	events := &fakeBillingEventRepo{}
	provider := &fakeBillingProvider{portalURL: "https://billing.example.com/p/abc"}
	svc := NewBillingService(nil, testLog(t),
		&fakeOrgRepo{org: &types.Organization{
			SubscriptionStatus: types.SubscriptionActive,
			StripeCustomerID:   "cus_123",
		}},
		&fakeUserRepo{},
		events,
		provider,
	)

	url, err := svc.PortalURL(context.Background(), uuid.New(), "https://app.example.com/settings")
	if err != nil {
		t.Fatalf("PortalURL: %v", err)
	}
	if url != provider.portalURL {
		t.Fatalf("url: got=%q", url)
	}
	if provider.portalCalls != 1 {
		t.Fatalf("provider calls: want=1 got=%d", provider.portalCalls)
	}
	if len(events.created) != 1 || events.created[0].EventType != types.BillingPortalOpened {
		t.Fatalf("portal event not recorded: %+v", events.created)
	}
}
