package model

// Category groups products for reporting. Read-only in this service
// apart from the default seed.
type Category struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Products []Product `json:"products,omitempty"`
}

// DefaultCategories seeded on first boot
var DefaultCategories = []string{"Makanan", "Minuman", "Snack", "Lainnya"}
