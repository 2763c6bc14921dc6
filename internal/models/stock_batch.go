package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBatch - Mal kabulünde oluşan parti kaydı (kendi maliyeti ve SKT'si ile)
// Quantity sadece azalır, parti tekrar kullanılmaz. Düşüm motoru partilere
// dokunmaz; sadece SKT uyarıları için okunur.
type StockBatch struct {
	ID                  uint            `gorm:"primaryKey"`
	TenantID            uint            `gorm:"index;not null"`
	StockItemID         uint            `gorm:"index;not null"`
	StockItem           StockItem       `gorm:"foreignKey:StockItemID"`
	BatchNumber         string          `gorm:"size:50"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Kalan miktar
	CostPerUnit         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Kabul anındaki birim maliyet
	ReceivedAt          time.Time       `gorm:"not null"`
	ExpiryDate          *time.Time      `gorm:"index"` // Son kullanma tarihi (opsiyonel)
	PurchaseOrderItemID *uint           `gorm:"index"` // Partiyi oluşturan sipariş kalemi
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
