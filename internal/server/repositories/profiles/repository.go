package profiles

import (
	"context"

	"github.com/ar1701/demo-tedx/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Profile, error)
	Update(ctx context.Context, id string, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
}
