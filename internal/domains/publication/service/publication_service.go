package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	publication "newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/shared/authz"
	"newsletter-backend/internal/shared/utils"
)

type publicationService struct {
	repo publication.Repository
}

func NewPublicationService(repo publication.Repository) publication.Service {
	return &publicationService{repo: repo}
}

func (s *publicationService) Create(ctx context.Context, ownerID uuid.UUID, req publication.CreatePublicationRequest) (*publication.Publication, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.GenerateSlug(req.Name)
	}
	if !utils.IsValidSlug(slug) {
		return nil, publication.ErrInvalidSlug
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	now := time.Now()
	p := &publication.Publication{
		Name:         req.Name,
		Slug:         slug,
		Description:  req.Description,
		OwnerID:      ownerID,
		MonthlyPrice: req.MonthlyPrice,
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	return p, nil
}

// Get resolve slugOrID: thử UUID trước, fallback sang slug lookup
func (s *publicationService) Get(ctx context.Context, slugOrID string) (*publication.Publication, error) {
	if id, err := uuid.Parse(slugOrID); err == nil {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.FindBySlug(ctx, slugOrID)
}

func (s *publicationService) Update(ctx context.Context, principalID, id uuid.UUID, req publication.UpdatePublicationRequest) (*publication.Publication, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// NotFound trước Forbidden: ownership check cần row tồn tại
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanAct(principalID, p.OwnerID) {
		return nil, publication.ErrForbidden
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Slug != nil {
		// Slug rename: uniqueness được re-check bởi DB constraint trong Update
		p.Slug = *req.Slug
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.MonthlyPrice != nil {
		p.MonthlyPrice = req.MonthlyPrice
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *publicationService) Delete(ctx context.Context, principalID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !authz.CanAct(principalID, p.OwnerID) {
		return publication.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *publicationService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]publication.Publication, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
