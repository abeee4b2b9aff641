package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	publication "newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/internal/shared/response"
)

type PublicationHandler struct {
	service publication.Service
}

func NewPublicationHandler(service publication.Service) *PublicationHandler {
	return &PublicationHandler{service: service}
}

// Create xử lý POST /publications
func (h *PublicationHandler) Create(c *gin.Context) {
	ownerID := middleware.PrincipalID(c)

	var req publication.CreatePublicationRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/publications/"+p.Slug)
	response.Success(c, http.StatusCreated, p)
}

// Get xử lý GET /publications/:id (chấp nhận UUID hoặc slug)
func (h *PublicationHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Update xử lý PATCH /publications/:id
func (h *PublicationHandler) Update(c *gin.Context) {
	principalID := middleware.PrincipalID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid publication ID")
		return
	}

	var req publication.UpdatePublicationRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), principalID, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Delete xử lý DELETE /publications/:id
func (h *PublicationHandler) Delete(c *gin.Context) {
	principalID := middleware.PrincipalID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid publication ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), principalID, id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Publication deleted"})
}

// ListMine xử lý GET /publications (authenticated, publications của caller)
func (h *PublicationHandler) ListMine(c *gin.Context) {
	ownerID := middleware.PrincipalID(c)

	pubs, err := h.service.ListMine(c.Request.Context(), ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, pubs)
}

type validator interface {
	Validate() error
}

func (h *PublicationHandler) bindAndValidate(c *gin.Context, req validator) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return false
	}

	if err := req.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", verrs)
		} else {
			response.BadRequest(c, err.Error())
		}
		return false
	}

	return true
}

func (h *PublicationHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, publication.ErrPublicationNotFound):
		response.NotFound(c, "Publication not found")
	case errors.Is(err, publication.ErrSlugAlreadyExists):
		response.Conflict(c, "Slug already exists")
	case errors.Is(err, publication.ErrInvalidSlug):
		response.BadRequest(c, "Invalid slug format")
	case errors.Is(err, publication.ErrForbidden):
		response.Forbidden(c, "You are not the owner of this publication")
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}
