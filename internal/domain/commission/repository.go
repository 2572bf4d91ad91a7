package commission

import (
	"context"

	"github.com/google/uuid"
)

// SellerRepository defines the interface for seller lookups
type SellerRepository interface {
	// FindAll returns every seller
	FindAll(ctx context.Context) ([]Seller, error)

	// FindByID finds a seller by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Seller, error)

	// Save creates or updates a seller
	Save(ctx context.Context, seller *Seller) error
}
