package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/config"
	"newsletter-backend/internal/domains/billing"
	"newsletter-backend/internal/domains/billing/provider"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/internal/domains/user"
)

const webhookSecret = "whsec_test"

type pairKey struct {
	userID        uuid.UUID
	publicationID uuid.UUID
}

type fakeSubscriptionRepo struct {
	subs map[pairKey]*subscription.Subscription
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, s *subscription.Subscription) (uuid.UUID, error) {
	key := pairKey{s.UserID, s.PublicationID}
	if _, ok := r.subs[key]; ok {
		return uuid.Nil, subscription.ErrAlreadySubscribed
	}
	cp := *s
	cp.ID = uuid.New()
	r.subs[key] = &cp
	return cp.ID, nil
}

func (r *fakeSubscriptionRepo) FindByUserAndPublication(_ context.Context, userID, publicationID uuid.UUID) (*subscription.Subscription, error) {
	s, ok := r.subs[pairKey{userID, publicationID}]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return s, nil
}

func (r *fakeSubscriptionRepo) EnsureAbsent(_ context.Context, userID, publicationID uuid.UUID) error {
	delete(r.subs, pairKey{userID, publicationID})
	return nil
}

func (r *fakeSubscriptionRepo) SetTier(_ context.Context, userID, publicationID uuid.UUID, tier string) error {
	s, ok := r.subs[pairKey{userID, publicationID}]
	if !ok {
		return subscription.ErrSubscriptionNotFound
	}
	s.Tier = tier
	return nil
}

func (r *fakeSubscriptionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) ListSubscribers(_ context.Context, publicationID uuid.UUID, paidOnly bool) ([]subscription.Subscriber, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) CountByPublication(_ context.Context, publicationID uuid.UUID) (int64, error) {
	return 0, nil
}

type fakePublicationRepo struct {
	pubs map[uuid.UUID]*publication.Publication
}

func (r *fakePublicationRepo) Create(_ context.Context, p *publication.Publication) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (r *fakePublicationRepo) FindByID(_ context.Context, id uuid.UUID) (*publication.Publication, error) {
	p, ok := r.pubs[id]
	if !ok {
		return nil, publication.ErrPublicationNotFound
	}
	return p, nil
}
func (r *fakePublicationRepo) FindBySlug(_ context.Context, slug string) (*publication.Publication, error) {
	return nil, publication.ErrPublicationNotFound
}
func (r *fakePublicationRepo) Update(_ context.Context, p *publication.Publication) error { return nil }
func (r *fakePublicationRepo) Delete(_ context.Context, id uuid.UUID) error              { return nil }
func (r *fakePublicationRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]publication.Publication, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}
func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}
func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error { return nil }
func (r *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}
func (r *fakeUserRepo) MarkAsVerified(_ context.Context, userID uuid.UUID) error { return nil }
func (r *fakeUserRepo) UpdateVerificationToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return nil
}
func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, userID uuid.UUID) error { return nil }
func (r *fakeUserRepo) PurgeExpiredVerificationTokens(_ context.Context) (int64, error) {
	return 0, nil
}
func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return false, nil
}

type fixture struct {
	svc      billing.Service
	provider *provider.LocalProvider
	subs     *fakeSubscriptionRepo
	userID   uuid.UUID
	paidPub  uuid.UUID
	freePub  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	price := decimal.NewFromInt(10)
	paidPubID := uuid.New()
	freePubID := uuid.New()
	userID := uuid.New()

	pubRepo := &fakePublicationRepo{pubs: map[uuid.UUID]*publication.Publication{
		paidPubID: {ID: paidPubID, Name: "Paid Letter", Slug: "paid-letter", MonthlyPrice: &price, Currency: "usd"},
		freePubID: {ID: freePubID, Name: "Free Letter", Slug: "free-letter", Currency: "usd"},
	}}
	userRepo := &fakeUserRepo{users: map[uuid.UUID]*user.User{
		userID: {ID: userID, Email: "reader@example.com"},
	}}
	subs := &fakeSubscriptionRepo{subs: make(map[pairKey]*subscription.Subscription)}

	p := provider.NewLocalProvider("sk_test", webhookSecret, "http://web.test/billing/success", "http://web.test/billing/cancel")

	svc := NewBillingService(p, pubRepo, subs, userRepo, config.BillingConfig{
		Provider:      "mock",
		APIKey:        "sk_test",
		WebhookSecret: webhookSecret,
		SuccessURL:    "http://web.test/billing/success",
		CancelURL:     "http://web.test/billing/cancel",
	})

	return &fixture{svc: svc, provider: p, subs: subs, userID: userID, paidPub: paidPubID, freePub: freePubID}
}

func (f *fixture) signedEvent(t *testing.T, eventType string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"type":           eventType,
		"user_id":        f.userID.String(),
		"publication_id": f.paidPub.String(),
	})
	require.NoError(t, err)
	return payload, hex.EncodeToString(f.provider.Sign(payload))
}

func TestStartCheckoutReturnsSession(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.StartCheckout(context.Background(), f.userID, f.paidPub)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Contains(t, session.URL, "amount=10.00")
	assert.Contains(t, session.URL, "currency=usd")
}

func TestStartCheckoutRejectsFreeOnlyPublication(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartCheckout(context.Background(), f.userID, f.freePub)
	assert.ErrorIs(t, err, billing.ErrNoPaidTier)
}

func TestWebhookUpgradesExistingSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.subs.Create(ctx, &subscription.Subscription{
		UserID: f.userID, PublicationID: f.paidPub, Tier: subscription.TierFree,
	})
	require.NoError(t, err)

	payload, sig := f.signedEvent(t, billing.EventCheckoutCompleted)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, sig))

	sub, err := f.subs.FindByUserAndPublication(ctx, f.userID, f.paidPub)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierPaid, sub.Tier)
}

func TestWebhookCreatesPaidSubscriptionWhenAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload, sig := f.signedEvent(t, billing.EventCheckoutCompleted)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, sig))

	sub, err := f.subs.FindByUserAndPublication(ctx, f.userID, f.paidPub)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierPaid, sub.Tier)
}

func TestWebhookCancelDowngradesToFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.subs.Create(ctx, &subscription.Subscription{
		UserID: f.userID, PublicationID: f.paidPub, Tier: subscription.TierPaid,
	})
	require.NoError(t, err)

	payload, sig := f.signedEvent(t, billing.EventSubscriptionCanceled)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, sig))

	sub, err := f.subs.FindByUserAndPublication(ctx, f.userID, f.paidPub)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierFree, sub.Tier)
}

func TestWebhookCancelForMissingPairIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	payload, sig := f.signedEvent(t, billing.EventSubscriptionCanceled)
	assert.NoError(t, f.svc.HandleWebhook(context.Background(), payload, sig))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)

	payload, _ := f.signedEvent(t, billing.EventCheckoutCompleted)
	err := f.svc.HandleWebhook(context.Background(), payload, "deadbeef")
	assert.ErrorIs(t, err, billing.ErrInvalidWebhook)

	// A rejected webhook must not touch subscription state.
	_, err = f.subs.FindByUserAndPublication(context.Background(), f.userID, f.paidPub)
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestWebhookRejectsUnknownEventType(t *testing.T) {
	f := newFixture(t)

	payload, err := json.Marshal(map[string]string{
		"type":           "invoice.paid",
		"user_id":        f.userID.String(),
		"publication_id": f.paidPub.String(),
	})
	require.NoError(t, err)
	sig := hex.EncodeToString(f.provider.Sign(payload))

	assert.ErrorIs(t, f.svc.HandleWebhook(context.Background(), payload, sig), billing.ErrInvalidWebhook)
}
