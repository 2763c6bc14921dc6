package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product - Satılabilir ürün (menü kalemi). Sipariş/ödeme akışı bu modülün
// dışında yönetilir; burada sadece reçete çözümü için okunur.
type Product struct {
	ID        uint            `gorm:"primaryKey"`
	TenantID  uint            `gorm:"index;not null"`
	Name      string          `gorm:"size:100;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive  bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Recipe *Recipe `gorm:"foreignKey:ProductID"`
}
