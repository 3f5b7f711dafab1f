package cart

import (
	"context"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ItemRepository defines the persistence surface required by the cart service.
type ItemRepository interface {
	List(ctx context.Context) ([]models.CartItem, error)
	AddOrIncrement(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DecrementAboveOne(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	DeleteIfSingle(ctx context.Context, id uuid.UUID) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Clear(ctx context.Context) (int64, error)
}
