package models

import (
	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItemModel is the persistence model for the CatalogItem aggregate root.
type CatalogItemModel struct {
	AggregateModel
	Code         string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string                `gorm:"type:varchar(200);not null"`
	Category     string                `gorm:"type:varchar(100);index"`
	UnitPrice    decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Unit         catalog.UnitOfMeasure `gorm:"type:varchar(10);not null;default:'EACH'"`
	FiscalNCM    string                `gorm:"column:fiscal_ncm;type:varchar(20)"`
	FiscalCFOP   string                `gorm:"column:fiscal_cfop;type:varchar(10)"`
	FiscalOrigin string                `gorm:"column:fiscal_origin;type:varchar(10)"`
	Active       bool                  `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain CatalogItem.
func (m *CatalogItemModel) ToDomain() *catalog.CatalogItem {
	return &catalog.CatalogItem{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Category:          m.Category,
		UnitPrice:         m.UnitPrice,
		Unit:              m.Unit,
		Fiscal: catalog.FiscalInfo{
			NCM:    m.FiscalNCM,
			CFOP:   m.FiscalCFOP,
			Origin: m.FiscalOrigin,
		},
		Active: m.Active,
	}
}

// CatalogItemModelFromDomain creates a new persistence model from a domain CatalogItem.
func CatalogItemModelFromDomain(c *catalog.CatalogItem) *CatalogItemModel {
	m := &CatalogItemModel{
		Code:         c.Code,
		Name:         c.Name,
		Category:     c.Category,
		UnitPrice:    c.UnitPrice,
		Unit:         c.Unit,
		FiscalNCM:    c.Fiscal.NCM,
		FiscalCFOP:   c.Fiscal.CFOP,
		FiscalOrigin: c.Fiscal.Origin,
		Active:       c.Active,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// MeasurementSheetModel is the persistence model for the MeasurementSheet aggregate root.
type MeasurementSheetModel struct {
	AggregateModel
	CustomerID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items      []MeasuredItemModel `gorm:"foreignKey:SheetID;references:ID"`
}

// TableName returns the table name for GORM
func (MeasurementSheetModel) TableName() string {
	return "measurement_sheets"
}

// ToDomain converts the persistence model to a domain MeasurementSheet.
func (m *MeasurementSheetModel) ToDomain() *catalog.MeasurementSheet {
	sheet := &catalog.MeasurementSheet{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		Items:             make([]catalog.MeasuredItem, len(m.Items)),
	}
	for i, item := range m.Items {
		sheet.Items[i] = item.ToDomain()
	}
	return sheet
}

// MeasurementSheetModelFromDomain creates a new persistence model from a domain MeasurementSheet.
func MeasurementSheetModelFromDomain(s *catalog.MeasurementSheet) *MeasurementSheetModel {
	m := &MeasurementSheetModel{
		CustomerID: s.CustomerID,
		Items:      make([]MeasuredItemModel, len(s.Items)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, item := range s.Items {
		m.Items[i] = MeasuredItemModel{
			ID:            item.ID,
			SheetID:       s.ID,
			Position:      i,
			ParentID:      item.ParentID,
			CatalogItemID: item.CatalogItemID,
			Width:         item.Width,
			Height:        item.Height,
			Quantity:      item.Quantity,
			Location:      item.Location,
		}
	}
	return m
}

// MeasuredItemModel is the persistence model for one line of a measurement sheet.
type MeasuredItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	SheetID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position      int             `gorm:"not null;default:0"`
	ParentID      *uuid.UUID      `gorm:"type:uuid"`
	CatalogItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Width         decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Height        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Quantity      int             `gorm:"not null;default:1"`
	Location      string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (MeasuredItemModel) TableName() string {
	return "measured_items"
}

// ToDomain converts the persistence model to a domain MeasuredItem.
func (m *MeasuredItemModel) ToDomain() catalog.MeasuredItem {
	return catalog.MeasuredItem{
		ID:            m.ID,
		ParentID:      m.ParentID,
		CatalogItemID: m.CatalogItemID,
		Width:         m.Width,
		Height:        m.Height,
		Quantity:      m.Quantity,
		Location:      m.Location,
	}
}
