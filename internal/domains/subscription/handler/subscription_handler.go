package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/internal/shared/response"
	"newsletter-backend/pkg/actiontoken"
)

type SubscriptionHandler struct {
	service subscription.Service
	webURL  string
}

func NewSubscriptionHandler(service subscription.Service, webURL string) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, webURL: webURL}
}

// Subscribe xử lý POST /api/v1/subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscription.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), middleware.PrincipalID(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, subscription.ToDTO(sub))
}

// Unsubscribe xử lý DELETE /api/v1/subscriptions/:publicationID (authenticated)
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	publicationID, err := uuid.Parse(c.Param("publicationID"))
	if err != nil {
		response.NotFound(c, "Publication not found")
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), middleware.PrincipalID(c), publicationID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unsubscribed": true})
}

// ListMine xử lý GET /api/v1/subscriptions
func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	subs, err := h.service.ListMine(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	dtos := make([]*subscription.SubscriptionDTO, 0, len(subs))
	for i := range subs {
		dtos = append(dtos, subscription.ToDTO(&subs[i]))
	}
	response.Success(c, http.StatusOK, dtos)
}

// UnsubscribeByToken handles POST /unsubscribe, the one-click target from
// List-Unsubscribe-Post. The token is the only credential; there is no
// session. Mail providers POST with the token in the query string, the
// confirm page posts it in the body, both are accepted.
func (h *SubscriptionHandler) UnsubscribeByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		var req subscription.UnsubscribeRequest
		if err := c.ShouldBind(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		response.BadRequest(c, "Missing unsubscribe token")
		return
	}

	if err := h.service.UnsubscribeByToken(c.Request.Context(), token); err != nil {
		if errors.Is(err, actiontoken.ErrInvalidToken) {
			response.BadRequest(c, "Invalid or expired unsubscribe token")
			return
		}
		response.InternalServerError(c, "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unsubscribed": true})
}

// ConfirmUnsubscribe handles GET /unsubscribe. Email clients prefetch GET
// links, so this never mutates anything: it validates the token and redirects
// the reader to the confirm page, which POSTs back to actually unsubscribe.
func (h *SubscriptionHandler) ConfirmUnsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.redirectError(c, "missing_token")
		return
	}

	if err := h.service.VerifyToken(c.Request.Context(), token); err != nil {
		if errors.Is(err, actiontoken.ErrInvalidToken) {
			h.redirectError(c, "invalid_token")
			return
		}
		h.redirectError(c, "server_error")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/unsubscribe/confirm?token=%s", h.webURL, url.QueryEscape(token)))
}

func (h *SubscriptionHandler) redirectError(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/unsubscribe/error?reason=%s", h.webURL, reason))
}

func (h *SubscriptionHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, publication.ErrPublicationNotFound):
		response.NotFound(c, "Publication not found")
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		response.NotFound(c, "Subscription not found")
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}
