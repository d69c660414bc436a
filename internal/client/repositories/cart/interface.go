package cart

import (
	"context"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

type Repository interface {
	// Load returns the cart lines in insertion order. An empty cart is nil.
	Load(ctx context.Context) ([]models.CartItem, error)

	// Owner returns the username the stored cart belongs to, or "" when the
	// cart is empty or was filled before anyone signed in.
	Owner(ctx context.Context) (string, error)

	// Save replaces the stored cart with items owned by owner.
	Save(ctx context.Context, owner string, items []models.CartItem) error

	// Clear removes every line.
	Clear(ctx context.Context) error
}
