package identities

import (
	"context"

	"github.com/ar1701/demo-tedx/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByUsername(ctx context.Context, username string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	Update(ctx context.Context, id string, name string, email string) error
	Delete(ctx context.Context, id string) error
}
