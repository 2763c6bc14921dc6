package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe - Satılabilir ürünün malzeme reçetesi (ürün başına en fazla bir reçete)
type Recipe struct {
	ID        uint    `gorm:"primaryKey"`
	TenantID  uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"uniqueIndex;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Name      string  `gorm:"size:100"`
	Notes     string  `gorm:"size:500"`
	Yield     int     `gorm:"not null;default:1"` // Bir hazırlıktan çıkan porsiyon sayısı (>=1)
	CreatedAt time.Time
	UpdatedAt time.Time

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredient - Reçetedeki tek malzeme satırı
type RecipeIngredient struct {
	ID          uint            `gorm:"primaryKey"`
	RecipeID    uint            `gorm:"index;not null"`
	StockItemID uint            `gorm:"index;not null"`
	StockItem   StockItem       `gorm:"foreignKey:StockItemID"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Yield başına gereken miktar
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
