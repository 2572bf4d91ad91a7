package models

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/google/uuid"
)

// SellerModel is the persistence model for sellers.
type SellerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Email     string    `gorm:"type:varchar(200)"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SellerModel) TableName() string {
	return "sellers"
}

// ToDomain converts the persistence model to a domain Seller.
func (m *SellerModel) ToDomain() commission.Seller {
	return commission.Seller{
		ID:     m.ID,
		Name:   m.Name,
		Email:  m.Email,
		Active: m.Active,
	}
}

// SellerModelFromDomain creates a new persistence model from a domain Seller.
func SellerModelFromDomain(s *commission.Seller) *SellerModel {
	return &SellerModel{
		ID:     s.ID,
		Name:   s.Name,
		Email:  s.Email,
		Active: s.Active,
	}
}
