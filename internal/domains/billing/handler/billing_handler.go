package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/billing"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/user"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/internal/shared/response"
)

// SignatureHeader mang HMAC hex của webhook body
const SignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 64 << 10 // 64KB

type checkoutRequest struct {
	PublicationID string `json:"publication_id"`
}

func (r checkoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PublicationID, validation.Required, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if _, err := uuid.Parse(s); err != nil {
				return validation.NewError("validation_invalid_uuid", "must be a valid UUID")
			}
			return nil
		})),
	)
}

type BillingHandler struct {
	service billing.Service
}

func NewBillingHandler(service billing.Service) *BillingHandler {
	return &BillingHandler{service: service}
}

// StartCheckout xử lý POST /api/v1/billing/checkout
func (h *BillingHandler) StartCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	publicationID, _ := uuid.Parse(req.PublicationID)
	session, err := h.service.StartCheckout(c.Request.Context(), middleware.PrincipalID(c), publicationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, session)
}

// Portal xử lý GET /api/v1/billing/portal
func (h *BillingHandler) Portal(c *gin.Context) {
	url, err := h.service.PortalURL(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// Webhook handles POST /webhooks/billing. Unauthenticated by design; the
// signature header is the only trust anchor. Application-level failures
// still return 200 so the provider does not retry forever.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "Cannot read webhook body")
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidWebhook) {
			response.BadRequest(c, "Invalid webhook signature or payload")
			return
		}
		response.InternalServerError(c, "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}

func (h *BillingHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, publication.ErrPublicationNotFound):
		response.NotFound(c, "Publication not found")
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, billing.ErrNoPaidTier):
		response.BadRequest(c, "This publication does not offer a paid tier")
	case errors.Is(err, billing.ErrCheckoutUnavailable):
		response.BadRequest(c, "Checkout is unavailable for this publication")
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}
