package model

import "github.com/google/uuid"

type Product struct {
	BaseModel
	Barcode    string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"barcode"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty" validate:"-"`
	Price      float64    `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Cost       float64    `gorm:"not null;default:0" json:"cost" validate:"gte=0"`
	Stock      int        `gorm:"default:0" json:"stock" validate:"gte=0"`
	MinStock   int        `gorm:"default:0" json:"min_stock"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
}

// LowStock reports whether the product is at or below its restock threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}
