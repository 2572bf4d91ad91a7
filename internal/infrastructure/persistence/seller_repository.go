package persistence

import (
	"context"
	"errors"

	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSellerRepository implements commission.SellerRepository using GORM
type GormSellerRepository struct {
	db *gorm.DB
}

// NewGormSellerRepository creates a new GormSellerRepository
func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// FindAll returns every seller ordered by name
func (r *GormSellerRepository) FindAll(ctx context.Context) ([]commission.Seller, error) {
	var rows []models.SellerModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	sellers := make([]commission.Seller, len(rows))
	for i := range rows {
		sellers[i] = rows[i].ToDomain()
	}
	return sellers, nil
}

// FindByID finds a seller by its ID
func (r *GormSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Seller, error) {
	var model models.SellerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	seller := model.ToDomain()
	return &seller, nil
}

// Save creates or updates a seller
func (r *GormSellerRepository) Save(ctx context.Context, seller *commission.Seller) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "active", "updated_at"}),
		}).
		Create(models.SellerModelFromDomain(seller)).Error
}

var _ commission.SellerRepository = (*GormSellerRepository)(nil)
