package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/internal/shared/response"
)

type PostHandler struct {
	service post.Service
}

func NewPostHandler(service post.Service) *PostHandler {
	return &PostHandler{service: service}
}

// Create xử lý POST /api/v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req post.CreatePostRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.PrincipalID(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post.ToDTO(p))
}

// Get xử lý GET /api/v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, fullAccess, err := h.service.Get(c.Request.Context(), middleware.PrincipalID(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if !fullAccess {
		response.Success(c, http.StatusOK, post.ToTeaserDTO(p))
		return
	}
	response.Success(c, http.StatusOK, post.ToDTO(p))
}

// Update xử lý PUT /api/v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req post.UpdatePostRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.PrincipalID(c), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post.ToDTO(p))
}

// Delete xử lý DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.PrincipalID(c), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// SetPublished handles POST /api/v1/posts/:id/publish.
//
// Status contract: 401 without a valid bearer token (middleware), 404 when
// the post does not exist, 403 when the caller is neither author nor
// publication owner, 400 when the body is missing `publish` or it is not a
// boolean. The endpoint is idempotent: republishing keeps the original
// published_at.
func (h *PostHandler) SetPublished(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req post.UpdatePublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Non-boolean `publish` values land here as a JSON type error.
		response.BadRequest(c, "publish must be a boolean")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, "publish is required and must be a boolean")
		return
	}

	p, err := h.service.SetPublished(c.Request.Context(), middleware.PrincipalID(c), id, *req.Publish)
	if err != nil {
		h.handleError(c, err)
		return
	}

	message := "Post unpublished"
	if p.IsPublished {
		message = "Post published"
	}
	response.Success(c, http.StatusOK, gin.H{
		"post":    post.ToDTO(p),
		"message": message,
	})
}

// ListByPublication xử lý GET /api/v1/publications/:id/posts
func (h *PostHandler) ListByPublication(c *gin.Context) {
	publicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Publication not found")
		return
	}

	page, limit := pagination(c)
	includeDrafts := c.Query("include_drafts") == "true"

	posts, total, err := h.service.ListByPublication(c.Request.Context(), middleware.PrincipalID(c), publicationID, includeDrafts, limit, (page-1)*limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	dtos := make([]*post.PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, post.ToDTO(p))
	}

	response.SuccessWithMeta(c, http.StatusOK, dtos, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: int(total),
	})
}

// UploadCover xử lý POST /api/v1/posts/:id/cover
func (h *PostHandler) UploadCover(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		response.BadRequest(c, "cover file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "cannot read cover file")
		return
	}
	defer file.Close()

	p, err := h.service.UploadCoverImage(c.Request.Context(), middleware.PrincipalID(c), id, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post.ToDTO(p))
}

func (h *PostHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Post not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *PostHandler) bindAndValidate(c *gin.Context, req interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		var ve validation.Errors
		if errors.As(err, &ve) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", ve)
			return false
		}
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

func (h *PostHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, post.ErrPostNotFound):
		response.NotFound(c, "Post not found")
	case errors.Is(err, publication.ErrPublicationNotFound):
		response.NotFound(c, "Publication not found")
	case errors.Is(err, post.ErrForbidden):
		response.Forbidden(c, "You do not have permission to modify this post")
	case errors.Is(err, post.ErrInvalidUpload):
		response.BadRequest(c, "Cover image must be a jpg or png up to 5MB")
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
