package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
)

// fakePostRepo là in-memory post.Repository cho unit tests
type fakePostRepo struct {
	posts map[uuid.UUID]*post.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[uuid.UUID]*post.Post)}
}

func (r *fakePostRepo) Create(_ context.Context, p *post.Post) (uuid.UUID, error) {
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakePostRepo) FindByID(_ context.Context, id uuid.UUID) (*post.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) Update(_ context.Context, p *post.Post) error {
	stored, ok := r.posts[p.ID]
	if !ok {
		return post.ErrPostNotFound
	}
	stored.Title = p.Title
	stored.Body = p.Body
	stored.IsPaid = p.IsPaid
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return post.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) SetPublished(_ context.Context, id uuid.UUID, published bool) (*post.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	p.IsPublished = published
	if published && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) ListByPublication(_ context.Context, publicationID uuid.UUID, publishedOnly bool, limit, offset int) ([]*post.Post, int64, error) {
	var out []*post.Post
	for _, p := range r.posts {
		if p.PublicationID != publicationID {
			continue
		}
		if publishedOnly && !p.IsPublished {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakePostRepo) SetCoverImage(_ context.Context, id uuid.UUID, url string) error {
	p, ok := r.posts[id]
	if !ok {
		return post.ErrPostNotFound
	}
	p.CoverImageURL = &url
	return nil
}

// fakePublicationRepo chỉ cần FindByID cho các test này
type fakePublicationRepo struct {
	pubs map[uuid.UUID]*publication.Publication
}

func newFakePublicationRepo() *fakePublicationRepo {
	return &fakePublicationRepo{pubs: make(map[uuid.UUID]*publication.Publication)}
}

func (r *fakePublicationRepo) Create(_ context.Context, p *publication.Publication) (uuid.UUID, error) {
	cp := *p
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	r.pubs[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakePublicationRepo) FindByID(_ context.Context, id uuid.UUID) (*publication.Publication, error) {
	p, ok := r.pubs[id]
	if !ok {
		return nil, publication.ErrPublicationNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePublicationRepo) FindBySlug(_ context.Context, slug string) (*publication.Publication, error) {
	for _, p := range r.pubs {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, publication.ErrPublicationNotFound
}

func (r *fakePublicationRepo) Update(_ context.Context, p *publication.Publication) error {
	if _, ok := r.pubs[p.ID]; !ok {
		return publication.ErrPublicationNotFound
	}
	cp := *p
	r.pubs[p.ID] = &cp
	return nil
}

func (r *fakePublicationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.pubs, id)
	return nil
}

func (r *fakePublicationRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]publication.Publication, error) {
	var out []publication.Publication
	for _, p := range r.pubs {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeSubscriptionRepo chỉ cần tier lookup cho paid-post gating
type fakeSubscriptionRepo struct {
	subs map[string]*subscription.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]*subscription.Subscription)}
}

func pairKey(userID, publicationID uuid.UUID) string {
	return userID.String() + ":" + publicationID.String()
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, s *subscription.Subscription) (uuid.UUID, error) {
	key := pairKey(s.UserID, s.PublicationID)
	if _, ok := r.subs[key]; ok {
		return uuid.Nil, subscription.ErrAlreadySubscribed
	}
	cp := *s
	cp.ID = uuid.New()
	r.subs[key] = &cp
	return cp.ID, nil
}

func (r *fakeSubscriptionRepo) FindByUserAndPublication(_ context.Context, userID, publicationID uuid.UUID) (*subscription.Subscription, error) {
	s, ok := r.subs[pairKey(userID, publicationID)]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriptionRepo) EnsureAbsent(_ context.Context, userID, publicationID uuid.UUID) error {
	delete(r.subs, pairKey(userID, publicationID))
	return nil
}

func (r *fakeSubscriptionRepo) SetTier(_ context.Context, userID, publicationID uuid.UUID, tier string) error {
	s, ok := r.subs[pairKey(userID, publicationID)]
	if !ok {
		return subscription.ErrSubscriptionNotFound
	}
	s.Tier = tier
	return nil
}

func (r *fakeSubscriptionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]subscription.Subscription, error) {
	var out []subscription.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListSubscribers(_ context.Context, publicationID uuid.UUID, paidOnly bool) ([]subscription.Subscriber, error) {
	var out []subscription.Subscriber
	for _, s := range r.subs {
		if s.PublicationID != publicationID {
			continue
		}
		if paidOnly && s.Tier != subscription.TierPaid {
			continue
		}
		out = append(out, subscription.Subscriber{UserID: s.UserID, Tier: s.Tier})
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) CountByPublication(_ context.Context, publicationID uuid.UUID) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.PublicationID == publicationID {
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	uploads map[string][]byte
}

func (s *fakeStorage) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[key] = data
	return "http://localhost:9000/newsletter/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.uploads, key)
	return nil
}

func (s *fakeStorage) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range s.uploads {
		if strings.HasPrefix(key, prefix) {
			delete(s.uploads, key)
		}
	}
	return nil
}

type fixture struct {
	svc     post.Service
	repo    *fakePostRepo
	subRepo *fakeSubscriptionRepo
	ownerID uuid.UUID
	pubID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakePostRepo()
	pubRepo := newFakePublicationRepo()
	subRepo := newFakeSubscriptionRepo()

	ownerID := uuid.New()
	pubID, err := pubRepo.Create(context.Background(), &publication.Publication{
		OwnerID: ownerID,
		Name:    "Morning Dispatch",
		Slug:    "morning-dispatch",
	})
	require.NoError(t, err)

	// Enqueues point at a dead address; fan-out failures are logged, never
	// surfaced to the caller.
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { client.Close() })

	return &fixture{
		svc:     NewPostService(repo, pubRepo, subRepo, &fakeStorage{}, client),
		repo:    repo,
		subRepo: subRepo,
		ownerID: ownerID,
		pubID:   pubID,
	}
}

func (f *fixture) createDraft(t *testing.T) *post.Post {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.ownerID, &post.CreatePostRequest{
		PublicationID: f.pubID.String(),
		Title:         "Hello world",
		Body:          "First issue.",
	})
	require.NoError(t, err)
	require.False(t, p.IsPublished)
	require.Nil(t, p.PublishedAt)
	return p
}

func TestSetPublishedStampsPublishedAtOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	published, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	require.NotNil(t, published.PublishedAt)

	firstStamp := *published.PublishedAt

	// Unpublish keeps the stamp.
	unpublished, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, false)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
	require.NotNil(t, unpublished.PublishedAt)
	assert.Equal(t, firstStamp, *unpublished.PublishedAt)

	// Republish does not overwrite it either.
	republished, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)
	assert.True(t, republished.IsPublished)
	require.NotNil(t, republished.PublishedAt)
	assert.Equal(t, firstStamp, *republished.PublishedAt)
}

func TestSetPublishedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	first, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)

	second, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)

	assert.True(t, second.IsPublished)
	assert.Equal(t, *first.PublishedAt, *second.PublishedAt)
}

func TestSetPublishedForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	stranger := uuid.New()
	_, err := f.svc.SetPublished(ctx, stranger, draft.ID, true)
	assert.ErrorIs(t, err, post.ErrForbidden)

	// State must be untouched after a refused transition.
	got, err := f.repo.FindByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.Nil(t, got.PublishedAt)
}

func TestSetPublishedAnonymousForbidden(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t)

	_, err := f.svc.SetPublished(context.Background(), uuid.Nil, draft.ID, true)
	assert.ErrorIs(t, err, post.ErrForbidden)
}

func TestSetPublishedUnknownPostIsNotFoundEvenForStranger(t *testing.T) {
	f := newFixture(t)

	// Missing posts are 404 before any ownership question can be asked.
	_, err := f.svc.SetPublished(context.Background(), uuid.New(), uuid.New(), true)
	assert.ErrorIs(t, err, post.ErrPostNotFound)
}

func TestCreateRequiresPublicationOwnership(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), &post.CreatePostRequest{
		PublicationID: f.pubID.String(),
		Title:         "Sneaky",
		Body:          "Not my publication.",
	})
	assert.ErrorIs(t, err, post.ErrForbidden)
}

func TestUpdateAllowedForAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	title := "Hello again"
	updated, err := f.svc.Update(ctx, f.ownerID, draft.ID, &post.UpdatePostRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, draft.Body, updated.Body)
}

func TestGetHidesDraftFromStranger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	// Author thấy draft, người ngoài nhận not-found
	p, full, err := f.svc.Get(ctx, f.ownerID, draft.ID)
	require.NoError(t, err)
	assert.True(t, full)
	assert.Equal(t, draft.ID, p.ID)

	_, _, err = f.svc.Get(ctx, uuid.New(), draft.ID)
	assert.ErrorIs(t, err, post.ErrPostNotFound)

	_, _, err = f.svc.Get(ctx, uuid.Nil, draft.ID)
	assert.ErrorIs(t, err, post.ErrPostNotFound)
}

func TestGetPaidPostGatedByTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	isPaid := true
	_, err := f.svc.Update(ctx, f.ownerID, draft.ID, &post.UpdatePostRequest{IsPaid: &isPaid})
	require.NoError(t, err)
	_, err = f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)

	// Anonymous và free subscriber chỉ được teaser
	_, full, err := f.svc.Get(ctx, uuid.Nil, draft.ID)
	require.NoError(t, err)
	assert.False(t, full)

	freeReader := uuid.New()
	_, err = f.subRepo.Create(ctx, &subscription.Subscription{
		UserID:        freeReader,
		PublicationID: f.pubID,
		Tier:          subscription.TierFree,
	})
	require.NoError(t, err)

	_, full, err = f.svc.Get(ctx, freeReader, draft.ID)
	require.NoError(t, err)
	assert.False(t, full)

	// Paid subscriber và owner được full body
	paidReader := uuid.New()
	_, err = f.subRepo.Create(ctx, &subscription.Subscription{
		UserID:        paidReader,
		PublicationID: f.pubID,
		Tier:          subscription.TierPaid,
	})
	require.NoError(t, err)

	_, full, err = f.svc.Get(ctx, paidReader, draft.ID)
	require.NoError(t, err)
	assert.True(t, full)

	_, full, err = f.svc.Get(ctx, f.ownerID, draft.ID)
	require.NoError(t, err)
	assert.True(t, full)
}

func TestGetFreePublishedPostIsPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createDraft(t)

	_, err := f.svc.SetPublished(ctx, f.ownerID, draft.ID, true)
	require.NoError(t, err)

	p, full, err := f.svc.Get(ctx, uuid.Nil, draft.ID)
	require.NoError(t, err)
	assert.True(t, full)
	assert.True(t, p.IsPublished)
}
