package publication

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa business logic cho publication domain
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreatePublicationRequest) (*Publication, error)
	Get(ctx context.Context, slugOrID string) (*Publication, error)
	Update(ctx context.Context, principalID, id uuid.UUID, req UpdatePublicationRequest) (*Publication, error)
	Delete(ctx context.Context, principalID, id uuid.UUID) error
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]Publication, error)
}
