package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockCountStatus - Sayım durumu
type StockCountStatus string

const (
	StockCountInProgress StockCountStatus = "IN_PROGRESS"
	StockCountCompleted  StockCountStatus = "COMPLETED" // Terminal
	StockCountCancelled  StockCountStatus = "CANCELLED" // Terminal
)

// StockCount - Fiziksel stok sayımı
// Oluşturulurken her kalem için CurrentStock anlık görüntüsü ExpectedQty olarak alınır.
type StockCount struct {
	ID          uint             `gorm:"primaryKey"`
	TenantID    uint             `gorm:"index;not null"`
	Name        string           `gorm:"size:100"`
	Status      StockCountStatus `gorm:"size:20;not null;default:IN_PROGRESS;index"`
	Notes       string           `gorm:"size:500"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []StockCountItem `gorm:"foreignKey:StockCountID;constraint:OnDelete:CASCADE"`
}

// StockCountItem - Sayımdaki tek kalem
// CountedQty girilene kadar nil; Variance = CountedQty - ExpectedQty (giriş anında hesaplanır).
type StockCountItem struct {
	ID           uint             `gorm:"primaryKey"`
	StockCountID uint             `gorm:"index;not null"`
	StockItemID  uint             `gorm:"index;not null"`
	StockItem    StockItem        `gorm:"foreignKey:StockItemID"`
	ExpectedQty  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CountedQty   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Variance     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
