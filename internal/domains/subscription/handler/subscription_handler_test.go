package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/pkg/actiontoken"
)

const testWebURL = "http://web.test"

// stubService ghi lại calls để chứng minh GET không bao giờ mutate
type stubService struct {
	verifyErr      error
	unsubscribeErr error

	unsubscribeCalls int
	verifyCalls      int
}

func (s *stubService) Subscribe(_ context.Context, _ uuid.UUID, _ *subscription.SubscribeRequest) (*subscription.Subscription, error) {
	return nil, nil
}

func (s *stubService) Unsubscribe(_ context.Context, _, _ uuid.UUID) error { return nil }

func (s *stubService) UnsubscribeByToken(_ context.Context, _ string) error {
	s.unsubscribeCalls++
	return s.unsubscribeErr
}

func (s *stubService) VerifyToken(_ context.Context, _ string) error {
	s.verifyCalls++
	return s.verifyErr
}

func (s *stubService) ListMine(_ context.Context, _ uuid.UUID) ([]subscription.Subscription, error) {
	return nil, nil
}

func (s *stubService) ListSubscribers(_ context.Context, _ uuid.UUID, _ bool) ([]subscription.Subscriber, error) {
	return nil, nil
}

func setupRouter(svc subscription.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSubscriptionHandler(svc, testWebURL)
	r.GET("/unsubscribe", h.ConfirmUnsubscribe)
	r.POST("/unsubscribe", h.UnsubscribeByToken)
	return r
}

func TestConfirmUnsubscribeRedirectsToConfirmPage(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token=abc123", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testWebURL+"/unsubscribe/confirm?token=abc123", w.Header().Get("Location"))
	assert.Equal(t, 1, svc.verifyCalls)
	assert.Zero(t, svc.unsubscribeCalls, "GET must not unsubscribe")
}

func TestConfirmUnsubscribeMissingToken(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testWebURL+"/unsubscribe/error?reason=missing_token", w.Header().Get("Location"))
	assert.Zero(t, svc.verifyCalls)
}

func TestConfirmUnsubscribeInvalidToken(t *testing.T) {
	svc := &stubService{verifyErr: actiontoken.ErrInvalidToken}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token=garbage", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testWebURL+"/unsubscribe/error?reason=invalid_token", w.Header().Get("Location"))
	assert.Zero(t, svc.unsubscribeCalls)
}

func TestUnsubscribeByTokenFromQuery(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	// One-click clients POST with the token in the query string and an
	// empty (or form-encoded) body.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/unsubscribe?token=abc123", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Equal(t, 1, svc.unsubscribeCalls)
}

func TestUnsubscribeByTokenFromFormBody(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/unsubscribe", strings.NewReader("token=abc123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.unsubscribeCalls)
}

func TestUnsubscribeByTokenMissingToken(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/unsubscribe", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.unsubscribeCalls)
}

func TestUnsubscribeByTokenInvalidToken(t *testing.T) {
	svc := &stubService{unsubscribeErr: actiontoken.ErrInvalidToken}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/unsubscribe?token=garbage", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
