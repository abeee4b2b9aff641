package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/domains/notification"
	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/pkg/actiontoken"
)

type deliveryKey struct {
	postID uuid.UUID
	userID uuid.UUID
}

type fakeDeliveryRepo struct {
	rows map[deliveryKey]*notification.Delivery
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{rows: make(map[deliveryKey]*notification.Delivery)}
}

func (r *fakeDeliveryRepo) CreateBatch(_ context.Context, deliveries []notification.Delivery) (int64, error) {
	var inserted int64
	for _, d := range deliveries {
		key := deliveryKey{d.PostID, d.UserID}
		if _, ok := r.rows[key]; ok {
			continue
		}
		cp := d
		cp.ID = uuid.New()
		cp.Status = notification.StatusPending
		cp.CreatedAt = time.Now()
		r.rows[key] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *fakeDeliveryRepo) ListPendingByPost(_ context.Context, postID uuid.UUID) ([]notification.Delivery, error) {
	var out []notification.Delivery
	for key, d := range r.rows {
		if key.postID == postID && d.Status == notification.StatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) ListRetryable(_ context.Context, maxAttempts, limit int) ([]notification.Delivery, error) {
	var out []notification.Delivery
	for _, d := range r.rows {
		if d.Status == notification.StatusFailed && d.Attempts < maxAttempts && len(out) < limit {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	for _, d := range r.rows {
		if d.ID == id {
			d.Status = notification.StatusSent
			d.Attempts++
			now := time.Now()
			d.SentAt = &now
			return nil
		}
	}
	return notification.ErrDeliveryNotFound
}

func (r *fakeDeliveryRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	for _, d := range r.rows {
		if d.ID == id {
			d.Status = notification.StatusFailed
			d.Attempts++
			d.LastError = &reason
			return nil
		}
	}
	return notification.ErrDeliveryNotFound
}

func (r *fakeDeliveryRepo) CountByPostAndStatus(_ context.Context, postID uuid.UUID, status string) (int64, error) {
	var n int64
	for key, d := range r.rows {
		if key.postID == postID && d.Status == status {
			n++
		}
	}
	return n, nil
}

type fakePostRepo struct {
	posts map[uuid.UUID]*post.Post
}

func (r *fakePostRepo) Create(_ context.Context, p *post.Post) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (r *fakePostRepo) FindByID(_ context.Context, id uuid.UUID) (*post.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	return p, nil
}
func (r *fakePostRepo) Update(_ context.Context, p *post.Post) error       { return nil }
func (r *fakePostRepo) Delete(_ context.Context, id uuid.UUID) error      { return nil }
func (r *fakePostRepo) SetPublished(_ context.Context, id uuid.UUID, published bool) (*post.Post, error) {
	return nil, post.ErrPostNotFound
}
func (r *fakePostRepo) ListByPublication(_ context.Context, publicationID uuid.UUID, publishedOnly bool, limit, offset int) ([]*post.Post, int64, error) {
	return nil, 0, nil
}
func (r *fakePostRepo) SetCoverImage(_ context.Context, id uuid.UUID, url string) error { return nil }

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

type fakeSubscriptionRepo struct {
	subscribers []subscription.Subscriber
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, s *subscription.Subscription) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (r *fakeSubscriptionRepo) FindByUserAndPublication(_ context.Context, userID, publicationID uuid.UUID) (*subscription.Subscription, error) {
	return nil, subscription.ErrSubscriptionNotFound
}
func (r *fakeSubscriptionRepo) EnsureAbsent(_ context.Context, userID, publicationID uuid.UUID) error {
	return nil
}
func (r *fakeSubscriptionRepo) SetTier(_ context.Context, userID, publicationID uuid.UUID, tier string) error {
	return nil
}
func (r *fakeSubscriptionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]subscription.Subscription, error) {
	return nil, nil
}
func (r *fakeSubscriptionRepo) ListSubscribers(_ context.Context, publicationID uuid.UUID, paidOnly bool) ([]subscription.Subscriber, error) {
	if !paidOnly {
		return r.subscribers, nil
	}
	var out []subscription.Subscriber
	for _, s := range r.subscribers {
		if s.Tier == subscription.TierPaid {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r *fakeSubscriptionRepo) CountByPublication(_ context.Context, publicationID uuid.UUID) (int64, error) {
	return 0, nil
}

// recordingSender thu thập emails; failFor giả lập SMTP lỗi per address
type recordingSender struct {
	sent    []*notification.PostEmail
	failFor map[string]error
}

func (s *recordingSender) SendPostNotification(_ context.Context, email *notification.PostEmail) error {
	if err, ok := s.failFor[email.To]; ok {
		return err
	}
	s.sent = append(s.sent, email)
	return nil
}

type fixture struct {
	svc      notification.Service
	repo     *fakeDeliveryRepo
	postRepo *fakePostRepo
	sender   *recordingSender
	codec    *actiontoken.Codec
	postID   uuid.UUID
	pubID    uuid.UUID
}

func newFixture(t *testing.T, isPaid bool, subscribers []subscription.Subscriber) *fixture {
	t.Helper()

	pubID := uuid.New()
	postID := uuid.New()
	now := time.Now()

	postRepo := &fakePostRepo{posts: map[uuid.UUID]*post.Post{
		postID: {
			ID:            postID,
			PublicationID: pubID,
			Title:         "Issue #1",
			Body:          "Welcome to the first issue.",
			IsPublished:   true,
			IsPaid:        isPaid,
			PublishedAt:   &now,
		},
	}}
	pubRepo := &fakePublicationRepo{pubs: map[uuid.UUID]*publication.Publication{
		pubID: {ID: pubID, Name: "Weekly Signal", Slug: "weekly-signal", OwnerID: uuid.New()},
	}}

	repo := newFakeDeliveryRepo()
	sender := &recordingSender{failFor: map[string]error{}}
	codec := actiontoken.NewCodec("test-secret", time.Hour)

	svc := NewNotificationService(
		repo, postRepo, pubRepo,
		&fakeSubscriptionRepo{subscribers: subscribers},
		sender, codec,
		"http://api.test", "http://web.test",
	)

	return &fixture{svc: svc, repo: repo, postRepo: postRepo, sender: sender, codec: codec, postID: postID, pubID: pubID}
}

func TestFanOutSendsToAllSubscribers(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "a@example.com", Tier: subscription.TierFree},
		{UserID: uuid.New(), Email: "b@example.com", Tier: subscription.TierPaid},
	}
	f := newFixture(t, false, subs)

	require.NoError(t, f.svc.FanOutPost(context.Background(), f.postID))
	assert.Len(t, f.sender.sent, 2)

	sent, err := f.repo.CountByPostAndStatus(context.Background(), f.postID, notification.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sent)
}

func TestFanOutPaidPostSkipsFreeTier(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "free@example.com", Tier: subscription.TierFree},
		{UserID: uuid.New(), Email: "paid@example.com", Tier: subscription.TierPaid},
	}
	f := newFixture(t, true, subs)

	require.NoError(t, f.svc.FanOutPost(context.Background(), f.postID))
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "paid@example.com", f.sender.sent[0].To)
}

func TestFanOutExcerptKeepsRunesIntact(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "a@example.com", Tier: subscription.TierFree},
	}
	f := newFixture(t, false, subs)
	f.postRepo.posts[f.postID].Body = strings.Repeat("bản tin tuần này có gì mới ", 30)

	require.NoError(t, f.svc.FanOutPost(context.Background(), f.postID))
	require.Len(t, f.sender.sent, 1)

	excerpt := f.sender.sent[0].PostExcerpt
	assert.True(t, utf8.ValidString(excerpt))
	assert.True(t, strings.HasSuffix(excerpt, "..."))
	assert.LessOrEqual(t, len(excerpt), 283)
}

func TestFanOutMintsValidPerRecipientTokens(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "a@example.com", Tier: subscription.TierFree},
		{UserID: uuid.New(), Email: "b@example.com", Tier: subscription.TierFree},
	}
	f := newFixture(t, false, subs)

	require.NoError(t, f.svc.FanOutPost(context.Background(), f.postID))
	require.Len(t, f.sender.sent, 2)

	for _, email := range f.sender.sent {
		u, err := url.Parse(email.UnsubscribeURL)
		require.NoError(t, err)
		assert.Equal(t, "/unsubscribe", u.Path)

		payload, err := f.codec.Verify(u.Query().Get("token"))
		require.NoError(t, err)
		assert.Equal(t, email.To, payload.Email)
		assert.Equal(t, f.pubID, payload.PublicationID)

		// One-click target carries a token too (List-Unsubscribe-Post).
		assert.True(t, strings.Contains(email.OneClickURL, "token="))
	}
}

func TestFanOutOneFailureDoesNotAbortBatch(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "good@example.com", Tier: subscription.TierFree},
		{UserID: uuid.New(), Email: "bad@example.com", Tier: subscription.TierFree},
	}
	f := newFixture(t, false, subs)
	f.sender.failFor["bad@example.com"] = errors.New("smtp: mailbox unavailable")

	require.NoError(t, f.svc.FanOutPost(context.Background(), f.postID))

	ctx := context.Background()
	sent, _ := f.repo.CountByPostAndStatus(ctx, f.postID, notification.StatusSent)
	failed, _ := f.repo.CountByPostAndStatus(ctx, f.postID, notification.StatusFailed)
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(1), failed)
}

func TestFanOutRerunDoesNotDuplicateEmails(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "a@example.com", Tier: subscription.TierFree},
	}
	f := newFixture(t, false, subs)
	ctx := context.Background()

	require.NoError(t, f.svc.FanOutPost(ctx, f.postID))
	require.NoError(t, f.svc.FanOutPost(ctx, f.postID))

	// Second run finds the row already sent, nothing pending.
	assert.Len(t, f.sender.sent, 1)
}

func TestRetryFailedDeliveries(t *testing.T) {
	subs := []subscription.Subscriber{
		{UserID: uuid.New(), Email: "flaky@example.com", Tier: subscription.TierFree},
	}
	f := newFixture(t, false, subs)
	ctx := context.Background()

	f.sender.failFor["flaky@example.com"] = errors.New("smtp: timeout")
	require.NoError(t, f.svc.FanOutPost(ctx, f.postID))

	failed, _ := f.repo.CountByPostAndStatus(ctx, f.postID, notification.StatusFailed)
	require.Equal(t, int64(1), failed)

	// SMTP recovers, retry drains the failed row.
	delete(f.sender.failFor, "flaky@example.com")
	retried, err := f.svc.RetryFailedDeliveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	sent, _ := f.repo.CountByPostAndStatus(ctx, f.postID, notification.StatusSent)
	assert.Equal(t, int64(1), sent)
}
