package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteReason - Zayiat sebebi
type WasteReason string

const (
	WasteExpired          WasteReason = "EXPIRED"
	WasteSpoiled          WasteReason = "SPOILED"
	WasteDamaged          WasteReason = "DAMAGED"
	WasteOverproduction   WasteReason = "OVERPRODUCTION"
	WastePreparationWaste WasteReason = "PREPARATION_WASTE"
	WasteCustomerReturn   WasteReason = "CUSTOMER_RETURN"
	WasteOther            WasteReason = "OTHER"
)

// WasteLog - Zayiat kaydı (bozulma, kırılma vs.)
// Cost = Quantity x kayıt anındaki CostPerUnit. Sipariş düşümünün aksine
// zayiat, stoku eksiye düşürecekse REDDEDİLİR.
type WasteLog struct {
	ID          uint            `gorm:"primaryKey"`
	TenantID    uint            `gorm:"index;not null"`
	StockItemID uint            `gorm:"index;not null"`
	StockItem   StockItem       `gorm:"foreignKey:StockItemID"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // > 0
	Reason      WasteReason     `gorm:"size:30;not null;index"`
	Notes       string          `gorm:"size:500"`
	Cost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time
}

func ValidWasteReason(r WasteReason) bool {
	switch r {
	case WasteExpired, WasteSpoiled, WasteDamaged, WasteOverproduction,
		WastePreparationWaste, WasteCustomerReturn, WasteOther:
		return true
	}
	return false
}
