package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/pkg/jwt"
)

// stubService cố định outcome cho SetPublished để test status mapping
type stubService struct {
	setPublishedErr  error
	setPublishedOut  *post.Post
	publishCalls     int
	lastPrincipalID  uuid.UUID
	lastPublishValue bool
}

func (s *stubService) Create(_ context.Context, _ uuid.UUID, _ *post.CreatePostRequest) (*post.Post, error) {
	return nil, nil
}

func (s *stubService) Get(_ context.Context, _, _ uuid.UUID) (*post.Post, bool, error) {
	return nil, false, post.ErrPostNotFound
}

func (s *stubService) Update(_ context.Context, _, _ uuid.UUID, _ *post.UpdatePostRequest) (*post.Post, error) {
	return nil, nil
}

func (s *stubService) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func (s *stubService) SetPublished(_ context.Context, principalID, _ uuid.UUID, publish bool) (*post.Post, error) {
	s.publishCalls++
	s.lastPrincipalID = principalID
	s.lastPublishValue = publish
	if s.setPublishedErr != nil {
		return nil, s.setPublishedErr
	}
	return s.setPublishedOut, nil
}

func (s *stubService) ListByPublication(_ context.Context, _, _ uuid.UUID, _ bool, _, _ int) ([]*post.Post, int64, error) {
	return nil, 0, nil
}

func (s *stubService) UploadCoverImage(_ context.Context, _, _ uuid.UUID, _ string, _ int64, _ io.Reader) (*post.Post, error) {
	return nil, nil
}

func setupPublishRouter(svc post.Service) (*gin.Engine, *jwt.Manager) {
	gin.SetMode(gin.TestMode)
	jwtManager := jwt.NewManager("test-secret", 15*time.Minute, time.Hour)

	r := gin.New()
	h := NewPostHandler(svc)
	r.POST("/posts/:id/publish", middleware.AuthMiddleware(jwtManager), h.SetPublished)
	return r, jwtManager
}

func publishRequest(t *testing.T, r *gin.Engine, token, postID, body string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/publish", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPublishWithoutTokenIsUnauthorized(t *testing.T) {
	svc := &stubService{}
	r, _ := setupPublishRouter(svc)

	w := publishRequest(t, r, "", uuid.NewString(), `{"publish":true}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, svc.publishCalls)
}

func TestPublishUnknownPostIsNotFound(t *testing.T) {
	svc := &stubService{setPublishedErr: post.ErrPostNotFound}
	r, jwtManager := setupPublishRouter(svc)

	token, err := jwtManager.GenerateAccessToken(uuid.NewString(), "author@example.com")
	require.NoError(t, err)

	w := publishRequest(t, r, token, uuid.NewString(), `{"publish":true}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishByStrangerIsForbidden(t *testing.T) {
	svc := &stubService{setPublishedErr: post.ErrForbidden}
	r, jwtManager := setupPublishRouter(svc)

	token, err := jwtManager.GenerateAccessToken(uuid.NewString(), "stranger@example.com")
	require.NoError(t, err)

	w := publishRequest(t, r, token, uuid.NewString(), `{"publish":true}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublishNonBooleanBodyIsBadRequest(t *testing.T) {
	svc := &stubService{}
	r, jwtManager := setupPublishRouter(svc)

	token, err := jwtManager.GenerateAccessToken(uuid.NewString(), "author@example.com")
	require.NoError(t, err)

	for _, body := range []string{`{"publish":"yes"}`, `{"publish":1}`, `{}`, `not json`} {
		w := publishRequest(t, r, token, uuid.NewString(), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
	assert.Zero(t, svc.publishCalls, "invalid input must never reach the service")
}

func TestPublishSucceedsWithMessage(t *testing.T) {
	now := time.Now()
	postID := uuid.New()
	svc := &stubService{setPublishedOut: &post.Post{
		ID:            postID,
		PublicationID: uuid.New(),
		AuthorID:      uuid.New(),
		Title:         "Hello",
		Body:          "World",
		IsPublished:   true,
		PublishedAt:   &now,
	}}
	r, jwtManager := setupPublishRouter(svc)

	principalID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(principalID.String(), "author@example.com")
	require.NoError(t, err)

	w := publishRequest(t, r, token, postID.String(), `{"publish":true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), "Post published")
	assert.Equal(t, principalID, svc.lastPrincipalID)
	assert.True(t, svc.lastPublishValue)
}

func TestUnpublishMessage(t *testing.T) {
	stamp := time.Now().Add(-time.Hour)
	postID := uuid.New()
	svc := &stubService{setPublishedOut: &post.Post{
		ID:          postID,
		Title:       "Hello",
		IsPublished: false,
		PublishedAt: &stamp,
	}}
	r, jwtManager := setupPublishRouter(svc)

	token, err := jwtManager.GenerateAccessToken(uuid.NewString(), "author@example.com")
	require.NoError(t, err)

	w := publishRequest(t, r, token, postID.String(), `{"publish":false}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post unpublished")
	assert.False(t, svc.lastPublishValue)
}
